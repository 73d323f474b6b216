package scheduler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
)

// Scheduler is the long-running supervisor: every 60 seconds it checks
// Jobs against a durable last-run map and, for anything due and not
// already running, re-invokes this same executable with the job name
// as its subcommand, in a fresh isolated subprocess.
type Scheduler struct {
	DataDir string
	LogDir  string

	// OnLine, when set, receives every captured stdout line in
	// addition to it being written to the per-job log file — wired by
	// cmd/ to a web.Hub for live log streaming.
	OnLine func(job, line string)

	lastRun *lastRunStore
	lock    *flock.Flock
	running sync.Map // job name -> struct{}
	cron    *cron.Cron
}

// New prepares a Scheduler, loading (or creating) its durable last-run
// store and taking the single-instance file lock.
func New(dataDir, logDir string) (*Scheduler, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scheduler log dir: %w", err)
	}
	lastRun, err := newLastRunStore(dataDir)
	if err != nil {
		return nil, err
	}
	lock, err := acquireSingleInstance(dataDir)
	if err != nil {
		return nil, err
	}
	return &Scheduler{DataDir: dataDir, LogDir: logDir, lastRun: lastRun, lock: lock}, nil
}

// Run blocks, evaluating Jobs every 60 seconds, until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.lock.Unlock()

	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 1m", func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("scheduling tick: %w", err)
	}
	s.tick(ctx) // evaluate once immediately rather than waiting a full minute
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	for job, interval := range Jobs {
		if _, busy := s.running.Load(job); busy {
			continue
		}
		if now.Sub(s.lastRun.get(job)) < interval {
			continue
		}
		if err := s.lastRun.markNow(job, now); err != nil {
			log.Printf("[scheduler] recording last_run for %s: %v", job, err)
			continue
		}
		s.running.Store(job, struct{}{})
		go func(job string) {
			defer s.running.Delete(job)
			if err := s.runJob(ctx, job); err != nil {
				log.Printf("[scheduler] job %s failed: %v", job, err)
			}
		}(job)
	}
}

// runJob launches job as a subprocess of this same executable invoked
// with job as its subcommand, streams its stdout into
// <LogDir>/job-<job>.log with per-line prefixing, and appends any
// stderr once the process exits.
func (s *Scheduler) runJob(ctx context.Context, job string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable: %w", err)
	}

	logPath := s.LogDir + "/job-" + job + ".log"
	f, err := openLogFile(logPath)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	cmd := exec.CommandContext(ctx, exePath, job)
	cmd.Env = os.Environ()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	startLine := fmt.Sprintf("[%s] [%s] starting job %s\n", time.Now().UTC().Format(time.RFC3339), job, job)
	w.WriteString(startLine)
	w.Flush()
	log.Print(startLine[:len(startLine)-1])

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting job %s: %w", job, err)
	}

	var stderrBuf []byte
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := streamJobOutput(job, stdout, w, s.OnLine); err != nil {
			log.Printf("[scheduler] reading stdout for %s: %v", job, err)
		}
	}()
	go func() {
		defer wg.Done()
		stderrBuf, _ = io.ReadAll(stderr)
	}()
	wg.Wait()

	err = cmd.Wait()
	appendStderr(w, stderrBuf)

	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		code = -1
	}
	endLine := fmt.Sprintf("[%s] [%s] job %s finished with code %d\n", time.Now().UTC().Format(time.RFC3339), job, job, code)
	w.WriteString(endLine)
	w.Flush()
	log.Print(endLine[:len(endLine)-1])

	return err
}
