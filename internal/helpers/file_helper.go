package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// SaveUploadedFile streams a multipart upload to destinationPath and
// returns the sha256 of the written bytes.
func SaveUploadedFile(fileHeader *multipart.FileHeader, destinationPath string) (sha256sum string, err error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer func(src multipart.File) {
		err = src.Close()
		if err != nil {
			return
		}
	}(src)

	if err := os.MkdirAll(filepath.Dir(destinationPath), os.ModePerm); err != nil {
		return "", err
	}

	dst, err := os.Create(destinationPath)
	if err != nil {
		return "", err
	}
	defer func(dst *os.File) {
		err = dst.Close()
		if err != nil {
			return
		}
	}(dst)

	hasher := sha256.New()
	writer := io.MultiWriter(dst, hasher)
	if _, err := io.Copy(writer, src); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func DeleteFile(path string, recurse bool) error {
	if recurse {
		err := os.RemoveAll(path)
		if err != nil {
			return err
		}
	} else {
		err := os.Remove(path)
		if err != nil {
			return err
		}
	}
	return nil
}
