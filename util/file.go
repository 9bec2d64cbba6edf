package util

import (
	"io"
	"os"
)

// FileMoveOrCopy relocates a file, falling back to copy+remove
// when rename crosses filesystems (scratch dirs usually live on
// a different mount than the destination).
func FileMoveOrCopy(source, destination string) error {
	if err := os.Rename(source, destination); err == nil {
		return nil
	}

	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(destination)
	if err != nil {
		return err
	}

	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}
	return os.Remove(source)
}
