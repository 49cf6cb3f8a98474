package scg

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// OutputWriter interface for flexible output generation
type OutputWriter interface {
	WriteAssignment(result *Result, path string) error
	WriteEmbedding(result *Result, path string) error
	WriteRounds(result *Result, path string) error
	WriteAll(result *Result, outputDir string, prefix string) error
}

// FileWriter implements OutputWriter for file-based output
type FileWriter struct{}

// NewFileWriter creates a new file-based output writer
func NewFileWriter() OutputWriter {
	return &FileWriter{}
}

// WriteAll writes <prefix>.assignment, <prefix>.embedding and
// <prefix>.rounds.json into outputDir
func (fw *FileWriter) WriteAll(result *Result, outputDir string, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	assignmentPath := filepath.Join(outputDir, fmt.Sprintf("%s.assignment", prefix))
	if err := fw.WriteAssignment(result, assignmentPath); err != nil {
		return fmt.Errorf("failed to write assignment: %w", err)
	}

	embeddingPath := filepath.Join(outputDir, fmt.Sprintf("%s.embedding", prefix))
	if err := fw.WriteEmbedding(result, embeddingPath); err != nil {
		return fmt.Errorf("failed to write embedding: %w", err)
	}

	roundsPath := filepath.Join(outputDir, fmt.Sprintf("%s.rounds.json", prefix))
	if err := fw.WriteRounds(result, roundsPath); err != nil {
		return fmt.Errorf("failed to write rounds: %w", err)
	}

	return nil
}

// WriteAssignment writes one "<node> <label>" line per node; neutral nodes
// carry label -1
func (fw *FileWriter) WriteAssignment(result *Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for i, label := range result.Assignment {
		fmt.Fprintf(w, "%s %d\n", nodeName(result, i), label)
	}
	return w.Flush()
}

// WriteEmbedding writes "<node> y_1 ... y_K" per node
func (fw *FileWriter) WriteEmbedding(result *Result, path string) error {
	if result.Embedding == nil {
		return fmt.Errorf("result has no embedding")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	rows, _ := result.Embedding.Dims()
	for i := 0; i < rows; i++ {
		w.WriteString(nodeName(result, i))
		for _, x := range result.Embedding.RawRowView(i) {
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

// WriteRounds writes the per-round diagnostics and run statistics as JSON
func (fw *FileWriter) WriteRounds(result *Result, path string) error {
	data, err := json.MarshalIndent(struct {
		K          int         `json:"k"`
		Rounding   string      `json:"rounding"`
		Objective  float64     `json:"objective"`
		Rounds     []RoundInfo `json:"rounds"`
		Statistics Statistics  `json:"statistics"`
	}{result.K, result.Rounding, result.Objective, result.Rounds, result.Statistics}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func nodeName(result *Result, i int) string {
	if result.Graph != nil {
		return result.Graph.NodeID(i)
	}
	return strconv.Itoa(i)
}
