package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	scierr "github.com/aidino/mlops-tagifai/pkg/errors"
)

// SetupWarnings routes pkg/errors warnings through a zerolog logger. Warning
// types implementing zerolog.LogObjectMarshaler are logged with their
// structured fields embedded.
func SetupWarnings(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	scierr.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.EmbedObject(marshaler).Msg("warning")
			return
		}
		event.Err(warning).Msg("warning")
	})
}
