package courier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-io/courier/store"
	"github.com/golang-io/requests"
	"github.com/rs/zerolog"
)

// ServerURI is one broker endpoint. Scheme is one of tcp, mqtt, ssl, tls,
// mqtts, ws or wss.
type ServerURI struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	// Path is the websocket path, "/mqtt" when empty.
	Path string `yaml:"path"`
}

var defaultPorts = map[string]int{
	"tcp": 1883, "mqtt": 1883,
	"ssl": 8883, "tls": 8883, "mqtts": 8883,
	"ws": 80, "wss": 443,
}

// ParseServerURI parses "scheme://host[:port][/path]". The port defaults by scheme.
func ParseServerURI(s string) (ServerURI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return ServerURI{}, fmt.Errorf("%w: %v", ErrInvalidServer, err)
	}
	uri := ServerURI{Scheme: u.Scheme, Host: u.Hostname(), Path: u.Path}
	if p := u.Port(); p != "" {
		if uri.Port, err = strconv.Atoi(p); err != nil {
			return ServerURI{}, fmt.Errorf("%w: port %q", ErrInvalidServer, p)
		}
	}
	return uri, uri.validate()
}

func (s ServerURI) validate() error {
	port, ok := defaultPorts[s.Scheme]
	if !ok {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidServer, s.Scheme)
	}
	if s.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidServer)
	}
	if s.Port == 0 {
		s.Port = port
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidServer, s.Port)
	}
	return nil
}

// Addr returns host:port, filling in the scheme's default port.
func (s ServerURI) Addr() string {
	port := s.Port
	if port == 0 {
		port = defaultPorts[s.Scheme]
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

func (s ServerURI) String() string {
	return s.Scheme + "://" + s.Addr() + s.Path
}

// ConnectOptions are the parameters of one CONNECT.
type ConnectOptions struct {
	ServerURIs []ServerURI
	// ClientID is generated on Connect when empty.
	ClientID string
	Username string
	Password string
	// KeepAlive is sent in CONNECT in whole seconds.
	KeepAlive    time.Duration
	CleanSession bool
}

// Validate checks the options without contacting a broker.
func (o ConnectOptions) Validate() error {
	if len(o.ServerURIs) == 0 {
		return ErrNoServers
	}
	for _, s := range o.ServerURIs {
		if err := s.validate(); err != nil {
			return err
		}
	}
	if o.KeepAlive < time.Second || o.KeepAlive > 65535*time.Second || o.KeepAlive%time.Second != 0 {
		return ErrInvalidKeepAlive
	}
	if len(o.ClientID) > 0xFFFF || len(o.Username) > 0xFFFF || len(o.Password) > 0xFFFF {
		return fmt.Errorf("courier: connect field longer than 65535 bytes")
	}
	if o.Password != "" && o.Username == "" {
		return fmt.Errorf("courier: password requires a user name")
	}
	return nil
}

// Backoff configures the reconnect delay min(Base*2^attempt, Max).
type Backoff struct {
	Base time.Duration
	Max  time.Duration
	// Jitter randomizes each delay by ±Jitter (0 to 1); the cap still holds.
	Jitter float64
}

type Options struct {
	Authenticator      Authenticator
	EventHandler       EventHandler
	AuthFailureHandler AuthFailureHandler
	PingSender         PingSender
	Store              store.Store
	Logger             zerolog.Logger

	ConnectTimeout time.Duration
	// PingTimeout is the wait for PINGRESP, half the keep alive when zero.
	PingTimeout  time.Duration
	WriteTimeout time.Duration
	Backoff      Backoff

	// PendingTTL drops pending messages older than this at replay, 0 keeps them forever.
	PendingTTL time.Duration

	DialContext     func(ctx context.Context, network, addr string) (net.Conn, error)
	TLSClientConfig *tls.Config
}

type Option func(*Options)

func newOptions(opts ...Option) Options {
	options := Options{
		Authenticator:  passthrough{},
		Logger:         zerolog.Nop(),
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   5 * time.Second,
		Backoff:        Backoff{Base: time.Second, Max: 2 * time.Minute},
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// newClientID mirrors the generated ids of the other golang-io tools.
func newClientID() string {
	return "courier-" + requests.GenId()
}

func WithAuthenticator(a Authenticator) Option {
	return func(o *Options) {
		o.Authenticator = a
	}
}

func WithEventHandler(h EventHandler) Option {
	return func(o *Options) {
		o.EventHandler = h
	}
}

func WithAuthFailureHandler(h AuthFailureHandler) Option {
	return func(o *Options) {
		o.AuthFailureHandler = h
	}
}

// WithPingSender replaces the in-process ping timer, e.g. with a platform job scheduler.
func WithPingSender(p PingSender) Option {
	return func(o *Options) {
		o.PingSender = p
	}
}

// WithStore sets the pending message store. The default keeps messages in memory.
func WithStore(s store.Store) Option {
	return func(o *Options) {
		o.Store = s
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = d
	}
}

func WithPingTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.PingTimeout = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.WriteTimeout = d
	}
}

func WithBackoff(b Backoff) Option {
	return func(o *Options) {
		o.Backoff = b
	}
}

func WithPendingTTL(d time.Duration) Option {
	return func(o *Options) {
		o.PendingTTL = d
	}
}

func WithDialContext(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(o *Options) {
		o.DialContext = dial
	}
}

func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *Options) {
		o.TLSClientConfig = cfg
	}
}
