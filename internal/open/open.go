package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

// OpenNode opens the lecture file in $EDITOR at the heading of the given
// section or subsection. An empty section opens the file at the top.
func OpenNode(l scan.Lecture, opts parse.Options, section, subsection string) error {
	if _, err := os.Stat(l.Path); err != nil {
		return fmt.Errorf("file not found: %s", l.Path)
	}

	lineNum := 1
	if section != "" {
		doc, err := scan.Open(l, opts)
		if err != nil {
			return err
		}
		node, ok := doc.Node(section, subsection)
		if !ok {
			return fmt.Errorf("node not found: %s %s", section, subsection)
		}
		lineNum = max(node.Line, 1)
	}

	cmd := editorCommand(os.Getenv("EDITOR"), l.Path, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// editorCommand builds the command that opens filePath at lineNum for the
// editors that support it.
func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"less"}
	}
	name, extra := fields[0], fields[1:]
	base := name[strings.LastIndex(name, "/")+1:]

	line := strconv.Itoa(lineNum)
	var args []string
	switch {
	case strings.Contains(base, "vim"), base == "vi", base == "nano", base == "emacs", base == "less":
		args = []string{"+" + line, filePath}
	case strings.Contains(base, "code"):
		args = []string{"--goto", filePath + ":" + line}
	case base == "subl", base == "zed":
		args = []string{filePath + ":" + line}
	default:
		args = []string{filePath}
	}
	return exec.Command(name, append(extra, args...)...)
}
