// Package hostsfile reads the hosts list (spec §6 "Hosts file format")
// from a file or stdin: one hostname per line, LF-terminated; lines
// starting with newline, space, NUL, or '#' are skipped; a line missing
// its trailing newline (other than those skip cases) is a format error;
// a hostname (the line with its newline and surrounding whitespace
// trimmed) whose character count reaches 255 is HostnameTooLong.
//
// Grounded on original_source/src/lib.rs's Config::parse_hosts — a
// read_until('\n') loop classifying each line the same way — ported to
// bufio.Reader.ReadBytes and adapted to the teacher's error-wrapping
// idiom (sentinels in internal/errs instead of a ParseError enum).
package hostsfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"github.com/edirooss/gopssh/internal/errs"
)

const maxHostnameChars = 255

// Read loads the hosts list. path == "-" reads stdin; any other value
// is opened as a file path.
func Read(path string, stdin *os.File) ([]string, error) {
	if path == "-" {
		fd := stdin.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return nil, fmt.Errorf("%w: no hosts provided on stdin", errs.ErrHostsFileIO)
		}
		return readAll(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrHostsFileIO, err)
	}
	defer f.Close()
	return readAll(f)
}

func readAll(r io.Reader) ([]string, error) {
	reader := bufio.NewReader(r)
	var hosts []string
	lineNo := 0

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) == 0 && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %s", errs.ErrHostsFileIO, err)
		}
		lineNo++

		host, perr := processLine(line, lineNo)
		if perr != nil {
			return nil, perr
		}
		if host != "" {
			hosts = append(hosts, host)
		}

		if err == io.EOF {
			break
		}
	}

	return hosts, nil
}

// processLine classifies one raw line (delimiter included, if present)
// and returns the trimmed hostname, or "" if the line was skipped.
func processLine(line []byte, lineNo int) (string, error) {
	first := line[0]
	badStart := first == '\n' || first == ' ' || first == 0 || first == '#'
	endsWithNewline := line[len(line)-1] == '\n'

	switch {
	case !badStart && endsWithNewline:
		if !utf8.Valid(line) {
			return "", fmt.Errorf("%w: line %d", errs.ErrNonUTF8Byte, lineNo)
		}
		trimmed := strings.TrimSpace(string(line))
		if utf8.RuneCountInString(trimmed) >= maxHostnameChars {
			return "", fmt.Errorf("%w: line %d: limit %d", errs.ErrHostnameTooLong, lineNo, maxHostnameChars)
		}
		return trimmed, nil
	case !badStart && !endsWithNewline:
		return "", fmt.Errorf("%w: line %d missing trailing newline", errs.ErrHostFileFormat, lineNo)
	default:
		return "", nil
	}
}
