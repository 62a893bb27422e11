package xlog

import "context"

// RecordEnvelope is a wrapper object for streamed records via a channel.
// if a record couldn't be read, the envelope contains an error
type RecordEnvelope struct {
	Record *Record
	Err    error
}

// Stream returns a channel which receives all records starting at the given position.
// the channel is closed at the end of the log or when the context is done.
// if the log is closed the function returns nil
func Stream(_ctx context.Context, _log *Log, _from LSN) <-chan RecordEnvelope {
	if _log.IsClosed() {
		return nil
	}
	stream := make(chan RecordEnvelope)
	go func() {
		defer close(stream)
		r := _log.Read(_from)
		for r.Next() {
			select {
			case stream <- RecordEnvelope{Record: r.Record()}:
			case <-_ctx.Done():
				return
			}
		}
		if err := r.Err(); err != nil {
			select {
			case stream <- RecordEnvelope{Err: err}:
			case <-_ctx.Done():
			}
		}
	}()
	return stream
}
