package cleanup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/linuxautomation/autokit/pkg/cleanup/status"
	"github.com/linuxautomation/autokit/pkg/errors"
	"github.com/nightlyone/lockfile"
)

// lockRetryMaxInterval caps the delay between two attempts to take a busy lock
const lockRetryMaxInterval = 5 * time.Second

// held lists the lock files owned by this process. lockfile considers a
// lock owned by our own pid as free, so runs in one process check here first.
var held = struct {
	sync.Mutex
	paths map[string]struct{}
}{paths: make(map[string]struct{})}

// LockPath is the lock file guarding cleanups of target
func LockPath(lockDir, target string) string {
	sum := sha256.Sum256([]byte(absTarget(target)))
	return filepath.Join(absTarget(lockDir), "autokit-cleanup-"+hex.EncodeToString(sum[:6])+".lock")
}

// acquire the lock for target, held until the returned func is called.
//
// A lock held by another live process fails with status.ErrLocked, unless
// wait is positive: attempts are then repeated with an exponential backoff
// until wait has elapsed or ctx is done.
func acquire(ctx context.Context, lockDir, target string, wait time.Duration) (func(), error) {
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	lock, err := lockfile.New(LockPath(lockDir, target))
	if err != nil {
		return nil, fmt.Errorf("lock file: %w", err)
	}
	if wait <= 0 {
		return tryLock(lock, target)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = lockRetryMaxInterval
	bo.MaxElapsedTime = wait

	var unlock func()
	err = backoff.Retry(func() error {
		var err error
		unlock, err = tryLock(lock, target)
		if err != nil && !errors.Is(err, status.ErrLocked) {
			return backoff.Permanent(err)
		}
		return err // retry while busy
	},
		backoff.WithContext(bo, ctx),
	)
	if err != nil {
		return nil, err
	}
	return unlock, nil
}

func tryLock(lock lockfile.Lockfile, target string) (func(), error) {
	path := string(lock)
	held.Lock()
	defer held.Unlock()
	if _, busy := held.paths[path]; busy {
		return nil, status.ErrLocked.Wrapf("%s (pid %d)", target, os.Getpid())
	}

	if err := lock.TryLock(); err != nil {
		if errors.Is(err, lockfile.ErrBusy) {
			owner, _ := lock.GetOwner()
			pid := 0
			if owner != nil {
				pid = owner.Pid
			}
			return nil, status.ErrLocked.Wrapf("%s (pid %d)", target, pid)
		}
		return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	held.paths[path] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			held.Lock()
			defer held.Unlock()
			_ = lock.Unlock()
			delete(held.paths, path)
		})
	}, nil
}
