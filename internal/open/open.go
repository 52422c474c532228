package open

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// OpenChunk opens a chunk file in $EDITOR (less by default), positioned on
// the first line containing query.
func OpenChunk(filePath, query string) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum, err := findLine(filePath, query)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return openInEditor(editor, filePath, lineNum)
}

// findLine returns the 1-based number of the first line containing query,
// case-insensitively. It returns 1 when query is empty or not found.
func findLine(filePath, query string) (int, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 1, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return 1, fmt.Errorf("open chunk: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if strings.Contains(strings.ToLower(scanner.Text()), query) {
			return n, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 1, fmt.Errorf("read chunk: %w", err)
	}
	return 1, nil
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
