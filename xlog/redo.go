package xlog

import (
	"errors"

	"github.com/ljmsc/undo/page"
)

// Action tells recovery what to do with a page read for redo
type Action int

const (
	// NeedsRedo - the changes of the record have to be applied to the page
	NeedsRedo Action = iota
	// Restored - the page was restored from a full page image
	Restored
	// Done - the page already contains the changes of the record
	Done
	// NotFound - the page doesn't exist anymore, e.g. because it was discarded
	NotFound
)

func (a Action) String() string {
	switch a {
	case NeedsRedo:
		return "needs redo"
	case Restored:
		return "restored"
	case Done:
		return "done"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// ReadBufferForRedo reads the page referenced by block _id of the record and
// returns it pinned and locked. with page.ReadZero the page is initialized
// instead of read. for NotFound no buffer is returned.
func ReadBufferForRedo(_pool *page.Pool, _record *Record, _id uint8, _mode page.ReadMode) (Action, *page.Buffer, error) {
	blk := _record.Block(_id)
	if blk == nil {
		return NotFound, nil, BlockNotFoundErr
	}

	if blk.HasImage() {
		buf, err := _pool.Pin(blk.Tag, page.ReadZero)
		if err != nil {
			return NotFound, nil, err
		}
		buf.Lock()
		copy(buf.Page(), blk.Image)
		buf.Page().SetLSN(uint64(_record.LSN))
		_pool.MarkDirty(buf)
		return Restored, buf, nil
	}

	if _mode == page.ReadZero {
		buf, err := _pool.Pin(blk.Tag, page.ReadZero)
		if err != nil {
			return NotFound, nil, err
		}
		buf.Lock()
		return NeedsRedo, buf, nil
	}

	buf, err := _pool.Pin(blk.Tag, page.ReadNormal)
	if errors.Is(err, page.NotFoundErr) {
		return NotFound, nil, nil
	}
	if err != nil {
		return NotFound, nil, err
	}
	buf.Lock()
	if LSN(buf.Page().LSN()) >= _record.LSN {
		return Done, buf, nil
	}
	return NeedsRedo, buf, nil
}
