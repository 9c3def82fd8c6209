package routing

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// Decision says where a classified document belongs.
type Decision struct {
	// Accepted is true when the confidence met the routing threshold and
	// the document goes to its category folder.
	Accepted bool
	// Destination is the category name, or empty for the uncertain queue.
	Destination string
}

// Decide applies the routing threshold. A result at exactly the threshold
// is accepted.
func Decide(res identify.Result, threshold float64) Decision {
	if res.Category != identify.Unknown && res.Confidence >= threshold {
		return Decision{Accepted: true, Destination: res.Category}
	}
	return Decision{}
}

// FileRouter places documents into per-category folders under the output
// directory, or into the uncertain directory, together with a .dat sidecar
// holding the extracted fields.
type FileRouter struct {
	OutputDir    string
	UncertainDir string
}

// Route copies the document to its destination directory and returns the
// copied file's path. The source file is left in place.
func (r *FileRouter) Route(srcPath string, dec Decision) (string, error) {
	dir := r.UncertainDir
	if dec.Accepted {
		dir = filepath.Join(r.OutputDir, dec.Destination)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	dst := filepath.Join(dir, filepath.Base(srcPath))
	if err := copyFile(srcPath, dst); err != nil {
		return "", fmt.Errorf("failed to copy document: %w", err)
	}
	log.Infof("Copied document to %s", dst)
	return dst, nil
}

// WriteSidecar creates a .dat file next to the routed document with the
// category and extracted fields. Skipped with a warning when either field
// is missing.
func (r *FileRouter) WriteSidecar(docPath, category string, fields models.DocumentFields) error {
	if fields.PersonalNumber == "" || fields.ReferralDate == "" {
		log.Warnf("Skipping sidecar for %s: missing personal number or referral date", docPath)
		return nil
	}

	ext := filepath.Ext(docPath)
	datPath := strings.TrimSuffix(docPath, ext) + ".dat"

	var sb strings.Builder
	fmt.Fprintf(&sb, "Verksamhet: %s\n", category)
	fmt.Fprintf(&sb, "Personnummer: %s\n", fields.PersonalNumber)
	fmt.Fprintf(&sb, "Remissdatum: %s\n", fields.ReferralDate)
	fmt.Fprintf(&sb, "Skapad: %s\n", time.Now().Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(datPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	log.Infof("Wrote sidecar %s", datPath)
	return nil
}

// Move relocates an already-routed document (and its sidecar, if present)
// to another category folder. Used when a correction re-routes a document
// out of the uncertain queue.
func (r *FileRouter) Move(docPath, category string) (string, error) {
	dir := filepath.Join(r.OutputDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	dst := filepath.Join(dir, filepath.Base(docPath))
	if err := os.Rename(docPath, dst); err != nil {
		// Rename fails across filesystems; fall back to copy+remove.
		if err := copyFile(docPath, dst); err != nil {
			return "", fmt.Errorf("failed to move document: %w", err)
		}
		if err := os.Remove(docPath); err != nil {
			log.Warnf("Could not remove original %s after copy: %v", docPath, err)
		}
	}

	ext := filepath.Ext(docPath)
	datSrc := strings.TrimSuffix(docPath, ext) + ".dat"
	if data, err := os.ReadFile(datSrc); err == nil {
		datDst := filepath.Join(dir, filepath.Base(datSrc))
		updated := rewriteCategory(string(data), category)
		if err := os.WriteFile(datDst, []byte(updated), 0o644); err != nil {
			log.Warnf("Could not write sidecar %s: %v", datDst, err)
		} else if err := os.Remove(datSrc); err != nil {
			log.Warnf("Could not remove old sidecar %s: %v", datSrc, err)
		}
	}
	return dst, nil
}

func rewriteCategory(sidecar, category string) string {
	lines := strings.Split(sidecar, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Verksamhet:") {
			lines[i] = "Verksamhet: " + category
		}
	}
	return strings.Join(lines, "\n")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
