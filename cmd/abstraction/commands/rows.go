package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yugurt2005/poker-abstraction/codec"
)

// rowsCodec picks a codec from the file extension.
func rowsCodec(path string) (codec.Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codec.GoJSON{}, nil
	case ".msgpack", ".mp", ".msgp":
		return codec.Msgpack{}, nil
	default:
		return nil, fmt.Errorf("unsupported rows file %q (want .json or .msgpack)", path)
	}
}

// readRows reads a [][]float32 from a JSON or msgpack file.
func readRows(path string) ([][]float32, error) {
	c, err := rowsCodec(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows [][]float32
	if err := c.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// exportName is where cluster writes the uncompressed table of name.
func exportName(name string) string {
	return "exports/" + name + ".tbl"
}
