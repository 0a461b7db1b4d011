package frame

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LoadOptions controls how an uploaded file is parsed.
type LoadOptions struct {
	// Delimiter for CSV. If 0, tab for .tsv or a tab-heavy header, comma otherwise.
	Delimiter rune
	// Charset of delimited input: utf-8 (default), latin1, windows-1252, utf-16.
	Charset string
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultLoadOptions returns comma/UTF-8 parsing with delimiter auto-detection.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Charset: "utf-8"}
}

// CheckCharset reports whether name is a charset Load can decode.
func CheckCharset(name string) error {
	_, err := decoderFor(name)
	return err
}

// Load parses r according to the extension of filename and returns a snapshot.
func Load(filename string, r io.Reader, opt LoadOptions) (*Dataset, error) {
	rd := readerFor(filename)
	if rd == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	if opt.Delimiter == 0 {
		br := bufio.NewReader(r)
		head, _ := br.Peek(4096)
		opt.Delimiter = sniffDelimiter(filename, head)
		r = br
	}
	records, err := rd.Read(r, opt)
	if err != nil {
		return nil, err
	}
	records, err = normalize(records)
	if err != nil {
		return nil, err
	}
	return FromRecords(filepath.Base(filename), records)
}

// LoadFile opens path and calls Load.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(path, f, opt)
}
