package waveflow

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// openedFile is a file attachment whose handle is owned by the gateway until
// the call returns.
type openedFile struct {
	File
	rc io.ReadCloser
}

func osOpen(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// openFiles acquires every attachment up front so a missing file fails the
// call before any network activity. On error, already opened handles are
// released.
func (g *Gateway) openFiles(files []File) ([]openedFile, error) {
	opened := make([]openedFile, 0, len(files))
	for _, f := range files {
		rc, err := g.openFile(f.Path)
		if err != nil {
			closeFiles(opened)
			if errors.Is(err, os.ErrNotExist) {
				return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("file not found: %s", f.Path), Err: err}
			}
			return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("open %s", f.Path), Err: err}
		}
		opened = append(opened, openedFile{File: f, rc: rc})
	}
	return opened, nil
}

func closeFiles(files []openedFile) {
	for _, f := range files {
		_ = f.rc.Close()
	}
}

// multipartBody streams form fields and files through a pipe. The returned
// wait function closes the reading side and blocks until the writer has
// stopped, so file handles are no longer in use once it returns.
func multipartBody(form map[string][]string, files []openedFile) (io.Reader, string, func()) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	done := make(chan struct{})

	go func() {
		defer close(done)
		pw.CloseWithError(writeMultipart(mw, form, files))
	}()

	wait := func() {
		_ = pr.Close()
		<-done
	}
	return pr, mw.FormDataContentType(), wait
}

func writeMultipart(mw *multipart.Writer, form map[string][]string, files []openedFile) error {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range form[k] {
			if err := mw.WriteField(k, v); err != nil {
				return fmt.Errorf("write field %s: %w", k, err)
			}
		}
	}

	for _, f := range files {
		part, err := mw.CreatePart(fileHeader(f.File))
		if err != nil {
			return fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.rc); err != nil {
			return fmt.Errorf("copy %s: %w", f.Path, err)
		}
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileHeader(f File) textproto.MIMEHeader {
	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)
	return h
}
