package chain

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

// ReadJSONL decodes one contract per line. Blank lines are ignored.
func ReadJSONL(r io.Reader) ([]options.Contract, error) {
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var contracts []options.Contract
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c options.Contract
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		contracts = append(contracts, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return contracts, nil
}

func WriteJSONL(w io.Writer, contracts []options.Contract) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, c := range contracts {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding %s: %w", c, err)
		}
	}
	return bw.Flush()
}

// ReadJSONLZstd reads a zstd-compressed JSONL stream.
func ReadJSONLZstd(r io.Reader) ([]options.Contract, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	return ReadJSONL(dec)
}

func WriteJSONLZstd(w io.Writer, contracts []options.Contract) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if err := WriteJSONL(enc, contracts); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
