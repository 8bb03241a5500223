package metadata

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	exif "github.com/barasher/go-exiftool"
)

// Extracted is everything C1 derives from one candidate file (§4.1).
type Extracted struct {
	MimeType    string
	Width       int
	Height      int
	HasExif     bool
	Orientation int // EXIF Orientation tag (1-8), 0 if absent
	DateTaken   string
	DateSource  string // "exif", "filename", or "mtime"
}

// exifDateLayout is the format exiftool emits for date/time fields.
const exifDateLayout = "2006:01:02 15:04:05"

// Extract sniffs the MIME type, reads dimensions and EXIF fields via et
// (nil is accepted when exiftool could not be started for this worker), and
// derives a date by EXIF -> filename -> mtime priority (§4.1). ok is false
// if the file does not sniff as one of the accepted image MIME types.
func Extract(path string, et *exif.Exiftool) (Extracted, bool, error) {
	mime, err := SniffMIME(path)
	if err != nil {
		return Extracted{}, false, err
	}
	if mime == "" {
		return Extracted{}, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Extracted{}, false, err
	}

	e := Extracted{MimeType: mime}

	var fields map[string]interface{}
	if et != nil {
		metas := et.ExtractMetadata(path)
		if len(metas) > 0 && metas[0].Err == nil {
			fields = metas[0].Fields
		}
	}

	if w, h, ok := dimensionsFromFields(fields); ok {
		e.Width, e.Height = w, h
	}

	if fields != nil {
		e.HasExif = len(fields) > 0
		e.Orientation = orientationFromFields(fields)
	}

	if dt, ok := exifDateTaken(fields); ok {
		e.DateTaken = dt.Format(time.RFC3339)
		e.DateSource = "exif"
		return e, true, nil
	}

	if dt, ok := ParseFilenameDate(filepath.Base(path)); ok {
		e.DateTaken = dt.Format(time.RFC3339)
		e.DateSource = "filename"
		return e, true, nil
	}

	e.DateTaken = info.ModTime().UTC().Format(time.RFC3339)
	e.DateSource = "mtime"
	return e, true, nil
}

// exifDateTaken applies the DateTimeOriginal -> DateTimeDigitized -> DateTime
// priority from §4.1, then CreateDate: first field present that parses wins.
func exifDateTaken(fields map[string]interface{}) (time.Time, bool) {
	for _, key := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime", "CreateDate"} {
		if s, ok := fields[key].(string); ok {
			if t, err := time.Parse(exifDateLayout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func dimensionsFromFields(fields map[string]interface{}) (int, int, bool) {
	if fields == nil {
		return 0, 0, false
	}
	w, wok := intField(fields, "ImageWidth")
	h, hok := intField(fields, "ImageHeight")
	if wok && hok && w > 0 && h > 0 {
		return w, h, true
	}
	return 0, 0, false
}

func orientationFromFields(fields map[string]interface{}) int {
	if v, ok := intField(fields, "Orientation"); ok {
		return v
	}
	return 0
}

func intField(fields map[string]interface{}, key string) (int, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}
