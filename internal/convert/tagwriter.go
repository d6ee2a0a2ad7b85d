package convert

import (
	"context"
	"errors"

	"dir2opus/internal/logging"
	"dir2opus/internal/oggopus"
)

// writeTags applies job.Tags to the encoded output. An empty mapping is not
// an error; it only warns when the source should have carried tags.
func (r *Runner) writeTags(ctx context.Context, job *Job) error {
	logger := logging.WithContext(ctx, r.logger)
	if len(job.Tags) == 0 {
		if job.Format.NeedsConversion() {
			logging.WarnWithContext(logger, "no tags found", "tags_missing",
				logging.String("format", job.Format.String()),
				logging.String(logging.FieldErrorHint, "tag the source file to carry metadata over"),
				logging.String(logging.FieldImpact, "output has no metadata"),
			)
		}
		return nil
	}

	err := oggopus.WriteTags(job.Output, job.Tags)
	if err == nil {
		logger.Debug("tags written", logging.Int("keys", len(job.Tags)))
		return nil
	}

	kind := "unknown"
	var tagErr *oggopus.TagWriteError
	if errors.As(err, &tagErr) {
		kind = string(tagErr.Kind)
	}
	logging.WarnWithContext(logger, "failed to write tags", "tag_write_failed",
		logging.String("kind", kind),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect the output with `dir2opus tags`"),
		logging.String(logging.FieldImpact, "audio kept without metadata"),
	)
	return err
}
