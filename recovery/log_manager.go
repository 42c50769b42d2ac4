// Package recovery provides the write-ahead log manager the buffer pool
// consults before writing back dirty pages. Replaying the log is out of
// scope here; records are appended, checksummed and flushed in LSN order.
package recovery

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"

	"github.com/njenga/hifadhi/util"
)

// LSN is a log sequence number. LSNs are assigned monotonically starting
// at 1; INVALID_LSN marks "no logged modification".
type LSN int64

const INVALID_LSN LSN = 0

type RecordType byte

const (
	RecordUpdate RecordType = iota + 1
	RecordNewPage
	RecordFreePage
)

type LogRecord struct {
	LSN     LSN
	Type    RecordType
	PageId  int64
	Payload []byte
}

// LogManager buffers appended records in memory and persists them on
// FlushTo. Each record is framed as [length uint32][xxhash64 of body][body],
// body encoded with msgpack.
type LogManager struct {
	mu          sync.Mutex
	logFile     *os.File
	buf         bytes.Buffer
	nextLSN     LSN
	bufferedLSN LSN
	flushedLSN  LSN
}

func NewLogManager(file *os.File) *LogManager {
	return &LogManager{
		logFile: file,
		nextLSN: 1,
	}
}

// Append assigns the record its LSN and buffers it. The record is not
// durable until a FlushTo covering its LSN succeeds.
func (lm *LogManager) Append(rec LogRecord) (LSN, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec.LSN = lm.nextLSN

	body, err := util.Encode(rec)
	if err != nil {
		return INVALID_LSN, errors.Wrap(err, "encoding log record")
	}

	var header [12]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)))
	binary.BigEndian.PutUint64(header[4:12], xxhash.Checksum64(body))
	lm.buf.Write(header[:])
	lm.buf.Write(body)

	lm.nextLSN++
	lm.bufferedLSN = rec.LSN
	return rec.LSN, nil
}

// FlushTo durably persists all buffered records up through lsn. The buffer
// is written and fsynced as a whole, so flushing to any still-buffered LSN
// flushes everything appended so far.
func (lm *LogManager) FlushTo(lsn LSN) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lsn <= lm.flushedLSN || lm.buf.Len() == 0 {
		return nil
	}

	if _, err := lm.logFile.Write(lm.buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing log buffer")
	}
	if err := lm.logFile.Sync(); err != nil {
		return errors.Wrap(err, "syncing log file")
	}

	lm.buf.Reset()
	lm.flushedLSN = lm.bufferedLSN
	return nil
}

// Flush persists every buffered record.
func (lm *LogManager) Flush() error {
	lm.mu.Lock()
	target := lm.bufferedLSN
	lm.mu.Unlock()

	return lm.FlushTo(target)
}

func (lm *LogManager) FlushedLSN() LSN {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.flushedLSN
}

// ReadRecords decodes framed records from r, verifying each checksum. Used
// by tests and offline tooling.
func ReadRecords(r io.Reader) ([]LogRecord, error) {
	var records []LogRecord

	for {
		var header [12]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				return records, nil
			}
			return nil, errors.Wrap(err, "reading record header")
		}

		length := binary.BigEndian.Uint32(header[0:4])
		sum := binary.BigEndian.Uint64(header[4:12])

		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, errors.Wrap(err, "reading record body")
		}
		if xxhash.Checksum64(body) != sum {
			return nil, errors.Errorf("log record checksum mismatch after lsn %d", lastLSN(records))
		}

		rec, err := util.ToStruct[LogRecord](body)
		if err != nil {
			return nil, errors.Wrap(err, "decoding log record")
		}
		records = append(records, rec)
	}
}

func lastLSN(records []LogRecord) LSN {
	if len(records) == 0 {
		return INVALID_LSN
	}
	return records[len(records)-1].LSN
}
