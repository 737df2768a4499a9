package elf64

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// zeroPadChunk bounds the allocation used when emitting padding.
const zeroPadChunk = 64 * 1024

// WriteFile serializes the binary to a new file at path. An unmodified model
// reproduces the original file byte-for-byte.
func WriteFile(path string, b *Binary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailure, path, err)
	}
	if err := Write(f, b); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailure, path, err)
	}
	return nil
}

// Write serializes the binary in its assumed on-disk layout: executable
// header, program headers contiguously, section content in section order with
// zero-filled gaps, then all section headers contiguously at Ehdr.Shoff.
//
// The executable header is always at the beginning of an ELF file; the other
// parts could in principle live anywhere. This writer, like the parser's
// model, assumes the common layout produced by linkers and returns
// ErrBadLayout when the declared offsets contradict it.
func Write(w io.Writer, b *Binary) error {
	order := b.Order
	if order == nil {
		order = b.Ehdr.ByteOrder()
	}

	if err := writeStruct(w, order, &b.Ehdr); err != nil {
		return err
	}
	for i := range b.Phdrs {
		if err := writeStruct(w, order, &b.Phdrs[i]); err != nil {
			return err
		}
	}
	if err := writeSections(w, b); err != nil {
		return err
	}
	for i := range b.Shdrs {
		if err := writeStruct(w, order, &b.Shdrs[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeSections emits section content in section order. The first section is
// skipped: it is the null section, and the file range before the first real
// section holds the executable header and program headers already written.
// SHT_NOBITS sections contribute no bytes. After each section the gap to the
// next section's declared offset is zero-filled; after the last section the
// gap to the section header table is zero-filled.
func writeSections(w io.Writer, b *Binary) error {
	n := len(b.Sections)
	if n <= 1 {
		return nil
	}

	for i := 1; i < n-1; i++ {
		shdr := &b.Shdrs[i]
		if shdr.Type == SHTNobits {
			continue
		}
		if err := writeFull(w, b.Sections[i].Data); err != nil {
			return fmt.Errorf("section %d (%s): %w", i, b.Sections[i].Name, err)
		}
		if err := writeGap(w, b, shdr, b.Shdrs[i+1].Off, i); err != nil {
			return err
		}
	}

	last := n - 1
	shdr := &b.Shdrs[last]
	if shdr.Type != SHTNobits {
		if err := writeFull(w, b.Sections[last].Data); err != nil {
			return fmt.Errorf("section %d (%s): %w", last, b.Sections[last].Name, err)
		}
	}
	return writeGap(w, b, shdr, b.Ehdr.Shoff, last)
}

// writeGap zero-fills next - (shdr.Off + shdr.Size) bytes.
func writeGap(w io.Writer, b *Binary, shdr *Shdr, next uint64, index int) error {
	end := shdr.Off + shdr.Size
	if next < end {
		return fmt.Errorf("%w: %s: section %d ends at 0x%x past following offset 0x%x",
			ErrBadLayout, b.Path, index, end, next)
	}
	return writePadding(w, next-end)
}

// writePadding emits size zero bytes.
func writePadding(w io.Writer, size uint64) error {
	chunk := make([]byte, zeroPadChunk)
	for size > 0 {
		n := size
		if n > zeroPadChunk {
			n = zeroPadChunk
		}
		if err := writeFull(w, chunk[:n]); err != nil {
			return err
		}
		size -= n
	}
	return nil
}

// writeStruct encodes one fixed-layout header and writes it in full.
func writeStruct(w io.Writer, order binary.ByteOrder, v interface{}) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, v); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return writeFull(w, buf.Bytes())
}

// writeFull fails with ErrWriteFailure unless every byte is written.
func writeFull(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteFailure, n, len(data))
	}
	return nil
}
