// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestHandle(t *testing.T) {
	t.Run("nil-handle", func(t *testing.T) {
		var h *Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid close error: %+v", err)
		}
	})
	t.Run("nil-data", func(t *testing.T) {
		var h Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("error closing nil-data handle: %+v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	tmp := t.TempDir()

	t.Run("file", func(t *testing.T) {
		fname := filepath.Join(tmp, "data.raw")
		want := []byte("0123456789abcdef")
		err := os.WriteFile(fname, want, 0644)
		if err != nil {
			t.Fatalf("could not create file: %+v", err)
		}

		h, err := Open(fname)
		if err != nil {
			t.Fatalf("could not mmap file: %+v", err)
		}
		defer h.Close()

		if got, want := h.Len(), len(want); got != want {
			t.Fatalf("invalid length: got=%d, want=%d", got, want)
		}
		all := make([]byte, h.Len())
		_, err = h.ReadAt(all, 0)
		if err != nil {
			t.Fatalf("could not read file: %+v", err)
		}
		if !bytes.Equal(all, want) {
			t.Fatalf("invalid content: got=%q, want=%q", all, want)
		}

		got, err := io.ReadAll(io.NewSectionReader(h, 4, 8))
		if err != nil {
			t.Fatalf("could not read section: %+v", err)
		}
		if !bytes.Equal(got, want[4:12]) {
			t.Fatalf("invalid section: got=%q, want=%q", got, want[4:12])
		}

		buf := make([]byte, 4)
		n, err := h.ReadAt(buf, 14)
		if !errors.Is(err, io.EOF) || n != 2 {
			t.Fatalf("invalid short read: n=%d, err=%+v", n, err)
		}

		_, err = h.ReadAt(buf, 17)
		if err == nil {
			t.Fatalf("expected an error for an out-of-range offset")
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("could not close handle: %+v", err)
		}
		_, err = h.ReadAt(buf, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		fname := filepath.Join(tmp, "empty.raw")
		err := os.WriteFile(fname, nil, 0644)
		if err != nil {
			t.Fatalf("could not create file: %+v", err)
		}

		h, err := Open(fname)
		if err != nil {
			t.Fatalf("could not mmap empty file: %+v", err)
		}
		if got, want := h.Len(), 0; got != want {
			t.Fatalf("invalid length: got=%d, want=%d", got, want)
		}
		n, err := h.ReadAt(make([]byte, 1), 0)
		if !errors.Is(err, io.EOF) || n != 0 {
			t.Fatalf("invalid read: n=%d, err=%+v", n, err)
		}
		err = h.Close()
		if err != nil {
			t.Fatalf("could not close handle: %+v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Open(filepath.Join(tmp, "not-there.raw"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("invalid error: %+v", err)
		}
	})
}
