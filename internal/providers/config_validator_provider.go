package providers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/gookit/validate"
)

func init() {
	validate.AddValidator("unixPath", func(val any) bool {
		s, ok := val.(string)
		if !ok || s == "" || strings.ContainsRune(s, 0) {
			return false
		}
		return filepath.Clean(s) != ""
	})
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks the decoded config against its struct tags, then the
// cross-field rules tags cannot express.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	v.StopOnError = true
	if !v.Validate() {
		return errors.New("invalid config: " + v.Errors.One())
	}
	if cv.conf.Cache.Enabled && cv.conf.Cache.Size <= 0 {
		return errors.New("invalid config: cache.size must be positive when cache is enabled")
	}
	if cv.conf.Otp.Smtp.Host != "" && cv.conf.Otp.Smtp.From == "" {
		return errors.New("invalid config: otp.smtp.from is required when otp.smtp.host is set")
	}
	return nil
}
