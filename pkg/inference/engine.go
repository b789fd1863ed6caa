/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Structural inference engine. Rejects paths and XML up front, then runs one
independent scan per candidate delimiter in priority order and returns the datasets of
the first delimiter that yields a usable numeric column.
*/

package inference

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// xmlPrefixes mark input that belongs to the XML loader
var xmlPrefixes = []string{"<?xml", "<object"}

// Parse infers titles, column names and numeric columns from raw text.
// It returns ErrNotDelimitedText for paths and XML, and ErrNoValidData when
// no delimiter trial finds a usable column.
func Parse(raw RawText, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()
	log := opts.Logger.WithField("source", raw.Source)

	if notDelimited(raw.Text, opts.Fs) {
		log.Debug("Input declined: path or XML markup")
		return nil, ErrNotDelimitedText
	}

	for _, d := range opts.Delimiters {
		s, err := scan(raw.Text, d, opts.MaxAttemptsWithoutData)
		if err != nil {
			log.WithError(err).Warn("Delimiter trial aborted")
			return nil, errors.Join(ErrNoValidData, err)
		}
		datasets := s.assemble(raw.Source, opts.PreferSingleTabForMultiTrack)
		log.WithFields(logrus.Fields{
			"delimiter": d.Name(),
			"rows":      len(s.rows),
			"width":     s.width,
			"multi":     s.multi,
			"datasets":  len(datasets),
		}).Debug("Delimiter trial finished")
		if len(datasets) == 0 {
			continue
		}
		result := &Result{
			ID:         uuid.New().String(),
			Source:     raw.Source,
			Delimiter:  d,
			MultiTrack: s.multi && len(datasets) > 1,
			Datasets:   datasets,
		}
		log.WithFields(logrus.Fields{
			"parse_id":  result.ID,
			"delimiter": d.Name(),
			"datasets":  len(datasets),
			"duration":  time.Since(start),
		}).Debug("Text parsed")
		return result, nil
	}
	return nil, ErrNoValidData
}

// notDelimited reports input that names an existing file or starts with XML markup
func notDelimited(text string, fs afero.Fs) bool {
	trimmed := strings.TrimSpace(text)
	for _, p := range xmlPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	if trimmed == "" || strings.ContainsAny(trimmed, "\r\n") {
		return false
	}
	exists, err := afero.Exists(fs, trimmed)
	return err == nil && exists
}
