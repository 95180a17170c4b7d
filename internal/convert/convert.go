// Package convert shells out to an office-suite converter to turn .docx
// files into PDFs. The converter decides the output filename itself, so the
// produced PDF is located by searching the output directory afterwards.
package convert

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Converter runs an external soffice-compatible binary.
type Converter struct {
	binary  string
	timeout time.Duration
	fs      afero.Fs
	log     *logrus.Entry

	// runCommand is swapped out in tests.
	runCommand func(ctx context.Context, name string, args ...string) error
}

// New creates a Converter. binary defaults to "soffice".
func New(binary string, timeout time.Duration, fs afero.Fs, log *logrus.Logger) *Converter {
	if binary == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Converter{
		binary:  binary,
		timeout: timeout,
		fs:      fs,
		log:     log.WithField("component", "convert"),
	}
	c.runCommand = func(ctx context.Context, name string, args ...string) error {
		out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
		}
		return nil
	}
	return c
}

// ToPDF converts source to a PDF next to outputPath. The converter may not
// honor the requested name exactly, so the output directory is searched for
// the produced file; the returned path is where the PDF actually landed.
func (c *Converter) ToPDF(ctx context.Context, source, outputPath string) (string, error) {
	if ok, err := afero.Exists(c.fs, source); err != nil || !ok {
		return "", fmt.Errorf("source document %s does not exist", source)
	}

	outDir := filepath.Dir(outputPath)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.runCommand(ctx, c.binary,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, source)
	if err != nil {
		return "", fmt.Errorf("pdf conversion failed: %w", err)
	}

	produced, err := c.findProducedPDF(source, outputPath)
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"source": source,
		"output": produced,
	}).Info("converted document to pdf")
	return produced, nil
}

// findProducedPDF locates the converter's output: the requested path first,
// then the source basename with a .pdf extension in the output directory.
func (c *Converter) findProducedPDF(source, outputPath string) (string, error) {
	if ok, _ := afero.Exists(c.fs, outputPath); ok {
		return outputPath, nil
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	candidate := filepath.Join(filepath.Dir(outputPath), base+".pdf")
	if ok, _ := afero.Exists(c.fs, candidate); ok {
		return candidate, nil
	}

	return "", fmt.Errorf("conversion reported success but no PDF found near %s", outputPath)
}
