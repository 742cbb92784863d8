// internal/adapters/output/stream.go

// Package output contiene los adapters de salida del pipeline: escritura
// incremental de resultados enriquecidos, un objeto JSON por registro, en el
// orden en que cada pipeline los completa.
package output

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"originx/internal/core/domain"
	"originx/internal/core/ports"
	"originx/internal/platform/errors"
)

// StreamWriter emite cada registro apenas llega al sink. Con pretty activo
// cada objeto se indenta; si no, la salida es NDJSON (un objeto por línea).
type StreamWriter struct {
	buf  *bufio.Writer
	enc  *json.Encoder
	file *os.File // nil cuando el destino no es un archivo propio
}

var _ ports.ResultWriter = (*StreamWriter)(nil)

// NewStreamWriter escribe hacia w.
func NewStreamWriter(w io.Writer, pretty bool) *StreamWriter {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &StreamWriter{buf: buf, enc: enc}
}

// Open crea un writer hacia path, o hacia stdout si path es vacío o "-".
// El archivo abierto aquí se cierra en Close.
func Open(path string, pretty bool) (*StreamWriter, error) {
	if path == "" || path == "-" {
		return NewStreamWriter(os.Stdout, pretty), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create output file %s", path)
	}
	w := NewStreamWriter(f, pretty)
	w.file = f
	return w, nil
}

// Write serializa un registro y hace flush inmediato, para que los
// consumidores aguas abajo vean cada resultado al completarse.
func (w *StreamWriter) Write(record *domain.EnrichedRecord) error {
	if err := w.enc.Encode(record); err != nil {
		return errors.Wrap(err, "encode enriched record")
	}
	return w.buf.Flush()
}

// Close vacía el buffer y cierra el archivo si el writer lo abrió.
func (w *StreamWriter) Close() error {
	err := w.buf.Flush()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
