// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sftp

import (
	"context"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/crypto/ssh"

	"github.com/walteh/storefeed/pkg/remote"
)

// Config holds the connection parameters for the remote SFTP store.
type Config struct {
	Host     string
	Port     int
	Username string
	KeyPath  string

	// DialTimeout bounds the total time spent retrying the initial
	// connection, including backoff waits. Zero means one minute.
	DialTimeout time.Duration
}

// Validate fails fast on missing connection configuration; this is the one
// condition that aborts a run before any pass begins.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("sftp host is required")
	}
	if c.Username == "" {
		return errors.New("sftp username is required")
	}
	if c.KeyPath == "" {
		return errors.New("sftp key path is required")
	}
	return nil
}

// Provider connects to an SFTP drop site using public-key auth.
type Provider struct {
	cfg Config
}

func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return "sftp" }

// Connect opens a fresh SSH transport and SFTP subsystem. Transient dial
// failures are retried with exponential backoff up to DialTimeout, mirroring
// the store's habit of briefly refusing connections under load.
func (p *Provider) Connect(ctx context.Context) (remote.Session, error) {
	logger := zerolog.Ctx(ctx)

	if err := p.cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating sftp config: %w", err)
	}

	keyBytes, err := os.ReadFile(p.cfg.KeyPath)
	if err != nil {
		return nil, errors.Errorf("reading private key %s: %w", p.cfg.KeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, errors.Errorf("parsing private key: %w", err)
	}

	port := p.cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(port))

	sshCfg := &ssh.ClientConfig{
		User: p.cfg.Username,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// The drop site rotates hosts behind a load balancer; host keys are
		// not pinned, matching the upstream operator's guidance.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}

	var conn *ssh.Client
	dial := func() error {
		var dialErr error
		conn, dialErr = ssh.Dial("tcp", addr, sshCfg)
		if dialErr != nil {
			logger.Warn().Err(dialErr).Str("addr", addr).Msg("sftp dial failed, will retry")
		}
		return dialErr
	}

	dialTimeout := p.cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = time.Minute
	}
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 2 * time.Second
	expBackoff.MaxElapsedTime = dialTimeout

	if err := backoff.Retry(dial, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, errors.Errorf("dialing %s: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Errorf("starting sftp subsystem: %w", err)
	}

	logger.Debug().Str("addr", addr).Str("user", p.cfg.Username).Msg("sftp session established")
	return &session{conn: conn, client: client}, nil
}

type session struct {
	conn   *ssh.Client
	client *sftp.Client
}

func (s *session) ListEntities(ctx context.Context) ([]string, error) {
	return s.listDirs(ctx, ".")
}

func (s *session) ListDateFolders(ctx context.Context, entity string) ([]string, error) {
	return s.listDirs(ctx, entity)
}

func (s *session) ListFiles(ctx context.Context, entity, folder string) ([]string, error) {
	dir := path.Join(entity, folder)
	infos, err := s.readDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

func (s *session) Open(ctx context.Context, entity, folder, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("opening remote file: %w", err)
	}
	p := path.Join(entity, folder, name)
	f, err := s.client.Open(p)
	if err != nil {
		if isNotExist(err) {
			return nil, remote.NotFound(p)
		}
		return nil, errors.Errorf("opening %s: %w", p, err)
	}
	return f, nil
}

func (s *session) Close() error {
	clientErr := s.client.Close()
	connErr := s.conn.Close()
	if clientErr != nil {
		return errors.Errorf("closing sftp client: %w", clientErr)
	}
	if connErr != nil {
		return errors.Errorf("closing ssh transport: %w", connErr)
	}
	return nil
}

func (s *session) listDirs(ctx context.Context, dir string) ([]string, error) {
	infos, err := s.readDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			names = append(names, info.Name())
		}
	}
	return names, nil
}

func (s *session) readDir(ctx context.Context, dir string) ([]os.FileInfo, error) {
	// pkg/sftp calls are not context-aware; honor cancellation at the
	// operation boundary.
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("listing remote dir: %w", err)
	}
	infos, err := s.client.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return nil, remote.NotFound(dir)
		}
		return nil, errors.Errorf("listing %s: %w", dir, err)
	}
	return infos, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, sftp.ErrSSHFxNoSuchFile)
}
