package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
)

// Pool both encoders and their underlying buffers.
type pooledEncoder struct {
	buf     *bytes.Buffer
	encoder *json.Encoder
}

//nolint:gochecknoglobals // shared encoder pool
var encoderPool = sync.Pool{
	New: func() interface{} {
		buf := bytes.NewBuffer(make([]byte, 0, 512))
		return &pooledEncoder{buf: buf, encoder: json.NewEncoder(buf)}
	},
}

// WriteJSON encodes data and writes it with statusCode. Nothing is written when encoding fails.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	pe := encoderPool.Get().(*pooledEncoder)
	defer func() {
		pe.buf.Reset()
		encoderPool.Put(pe)
	}()

	if err := pe.encoder.Encode(data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err := w.Write(pe.buf.Bytes())
	return err
}
