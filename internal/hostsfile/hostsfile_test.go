package hostsfile

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/edirooss/gopssh/internal/errs"
)

func TestReadAllSkipsCommentsAndBlankLines(t *testing.T) {
	in := "host1\n# a comment\n\nhost2\n"
	got, err := readAll(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readAll() error = %v", err)
	}
	want := []string{"host1", "host2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReadAllMissingTrailingNewlineIsFormatError(t *testing.T) {
	_, err := readAll(strings.NewReader("host1\nhost2"))
	if !errors.Is(err, errs.ErrHostFileFormat) {
		t.Fatalf("error = %v, want ErrHostFileFormat", err)
	}
}

func TestReadAllHostnameTooLong(t *testing.T) {
	longHost := strings.Repeat("a", 255) + "\n"
	_, err := readAll(strings.NewReader(longHost))
	if !errors.Is(err, errs.ErrHostnameTooLong) {
		t.Fatalf("error = %v, want ErrHostnameTooLong", err)
	}
}

func TestReadAllHostnameAt254CharsSucceeds(t *testing.T) {
	host := strings.Repeat("a", 254)
	got, err := readAll(strings.NewReader(host + "\n"))
	if err != nil {
		t.Fatalf("readAll() error = %v", err)
	}
	if len(got) != 1 || got[0] != host {
		t.Fatalf("got %v", got)
	}
}

func TestReadAllEmptyInputProducesNoHosts(t *testing.T) {
	got, err := readAll(strings.NewReader(""))
	if err != nil {
		t.Fatalf("readAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestReadAllSkipsNulAndSpacePrefixedLines(t *testing.T) {
	in := " leading space\nhost1\n\x00nulstart\nhost2\n"
	got, err := readAll(strings.NewReader(in))
	if err != nil {
		t.Fatalf("readAll() error = %v", err)
	}
	want := []string{"host1", "host2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
