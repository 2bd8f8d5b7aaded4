package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
)

// queueDepth bounds the append channel. Producers block only if the
// drainer falls this far behind.
const queueDepth = 16

// FileLedger is the line-based append-only ledger. A background
// goroutine drains the queue into the log file; recording waits only
// when the queue is full.
type FileLedger struct {
	path  string
	queue chan string

	done sync.WaitGroup
	once sync.Once
}

// Open creates (or reopens) the ledger at path and starts the drainer.
func Open(path string) (*FileLedger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating ledger dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %q: %w", path, err)
	}

	l := &FileLedger{
		path:  path,
		queue: make(chan string, queueDepth),
	}
	l.done.Add(1)
	go func() {
		defer l.done.Done()
		defer f.Close()
		for line := range l.queue {
			if _, err := f.WriteString(line); err != nil {
				logger.Error("appending ledger record", "error", err)
			}
		}
	}()
	return l, nil
}

// Close stops accepting records and waits for the drainer to finish.
func (l *FileLedger) Close() error {
	l.once.Do(func() { close(l.queue) })
	l.done.Wait()
	return nil
}

func (l *FileLedger) append(record string) {
	line := fmt.Sprintf("%d %s\n", time.Now().Unix(), record)
	l.queue <- line
}

func (l *FileLedger) StoreFile(fileName string, chunks uint64) {
	l.append(fmt.Sprintf("store_file %s,%d", fileName, chunks))
}

func (l *FileLedger) StoreChunk(fileName string, order uint64, chunkID string, startOffset, endOffset uint64) {
	l.append(fmt.Sprintf("store_chunk %s,%d,%s,%d,%d", fileName, order, chunkID, startOffset, endOffset))
}

func (l *FileLedger) DeleteFile(fileName string) {
	l.append(fmt.Sprintf("delete_file %s", fileName))
}

func (l *FileLedger) DeleteChunk(fileName, chunkID string) {
	l.append(fmt.Sprintf("delete_chunk %s,%s", fileName, chunkID))
}

func (l *FileLedger) NodeKey(nodeID, encodedKey string) {
	l.append(fmt.Sprintf("node_key %s,%s", nodeID, encodedKey))
}

// Replay streams the log line by line, applying each operation to an
// empty metadata state. A missing log file yields empty state: first
// boot.
func (l *FileLedger) Replay() (*state.State, map[string]string, error) {
	st := state.New()
	keys := make(map[string]string)

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, keys, nil
		}
		return nil, nil, fmt.Errorf("opening ledger for replay: %w", err)
	}
	defer f.Close()

	// Chunk records arrive after their store_file record; collected per
	// file here, and the file is reinstalled as each one arrives.
	pendingFiles := make(map[string][]*state.ChunkDetail)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	now := time.Now()
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 {
			logger.Error("skipping malformed ledger line", "line", line)
			continue
		}
		op, payload := parts[1], parts[2]
		switch op {
		case "store_file":
			name, _, ok := strings.Cut(payload, ",")
			if !ok {
				logger.Error("skipping malformed store_file record", "line", line)
				continue
			}
			pendingFiles[name] = nil
			st.InstallFile(name, nil)
		case "store_chunk":
			tokens := strings.Split(payload, ",")
			if len(tokens) < 5 {
				logger.Error("skipping malformed store_chunk record", "line", line)
				continue
			}
			name, chunkID := tokens[0], tokens[2]
			start, err1 := strconv.ParseUint(tokens[3], 10, 64)
			end, err2 := strconv.ParseUint(tokens[4], 10, 64)
			if err1 != nil || err2 != nil {
				logger.Error("skipping store_chunk record with bad offsets", "line", line)
				continue
			}
			if _, ok := pendingFiles[name]; !ok {
				logger.Error("store_chunk record for unknown file", "file_name", name, "chunk_id", chunkID)
				continue
			}
			pendingFiles[name] = append(pendingFiles[name], state.NewChunkDetail(chunkID, start, end))
			st.InstallFile(name, pendingFiles[name])
		case "delete_file":
			st.RemoveFile(payload, now)
			delete(pendingFiles, payload)
		case "delete_chunk":
			_, chunkID, ok := strings.Cut(payload, ",")
			if !ok {
				logger.Error("skipping malformed delete_chunk record", "line", line)
				continue
			}
			st.MarkChunkDeleted(chunkID, now)
		case "node_key":
			nodeID, key, ok := strings.Cut(payload, ",")
			if !ok {
				logger.Error("skipping malformed node_key record", "line", line)
				continue
			}
			keys[nodeID] = key
		default:
			logger.Error("skipping ledger record with unknown operation", "operation", op)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading ledger: %w", err)
	}
	return st, keys, nil
}

var _ Ledger = (*FileLedger)(nil)
