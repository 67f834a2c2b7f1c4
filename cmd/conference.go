package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ysxemail003-cpu/ipv6conf/internal/api"
	"github.com/ysxemail003-cpu/ipv6conf/internal/conference"
	"github.com/ysxemail003-cpu/ipv6conf/internal/config"
	"github.com/ysxemail003-cpu/ipv6conf/internal/identity"
	"github.com/ysxemail003-cpu/ipv6conf/internal/media"
	"github.com/ysxemail003-cpu/ipv6conf/internal/signaling"
	"github.com/ysxemail003-cpu/ipv6conf/internal/ui"
)

// ConnectionContext bundles everything a conference command needs: the
// loaded config, the persistent identity, and the live clients.
type ConnectionContext struct {
	Config *config.Config
	UserID string
	API    *api.Client
	Relay  *signaling.Client
	Media  *media.Controller
	Engine *conference.Engine
}

func optionsFromFlags(cmd *cobra.Command) config.Options {
	f := cmd.Flags()
	server, _ := f.GetString("server")
	tls, _ := f.GetBool("tls")
	stun, _ := f.GetString("stun")
	turn, _ := f.GetString("turn")
	turnUser, _ := f.GetString("turn-user")
	turnPass, _ := f.GetString("turn-pass")
	forceRelay, _ := f.GetBool("force-relay")
	identityFile, _ := f.GetString("identity-file")
	return config.Options{
		Server:       server,
		TLS:          tls,
		STUNServer:   stun,
		TURNServer:   turn,
		TURNUser:     turnUser,
		TURNPass:     turnPass,
		ForceRelay:   forceRelay,
		IdentityFile: identityFile,
	}
}

func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(optionsFromFlags(cmd))
	if err != nil {
		return nil, err
	}
	if cfg.ForceRelay && cfg.GetTURNServers() == nil {
		return nil, fmt.Errorf("cannot force relay mode without TURN server configured")
	}
	return cfg, nil
}

// NewConnectionContext loads config and identity, connects the relay
// channel, and assembles the engine. The engine is not running yet.
func NewConnectionContext(cmd *cobra.Command) (*ConnectionContext, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	userID, err := identity.Load(cfg.IdentityFile)
	if err != nil {
		return nil, err
	}

	relay := signaling.NewClient(cfg.WebSocketURL())
	stop := ui.RunConnectionSpinner("Connecting to " + cfg.Server + "...")
	err = relay.Connect()
	stop()
	if err != nil {
		return nil, err
	}

	controller := media.NewController(media.SyntheticCapturer{})
	engine := conference.New(conference.Options{
		UserID:    userID,
		Relay:     relay,
		Incoming:  relay.Incoming(),
		Media:     controller,
		Directory: api.NewClient(cfg.HTTPBaseURL()),
		WebRTC:    conference.WebRTCConfiguration(cfg),
	})

	return &ConnectionContext{
		Config: cfg,
		UserID: userID,
		API:    api.NewClient(cfg.HTTPBaseURL()),
		Relay:  relay,
		Media:  controller,
		Engine: engine,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Relay != nil {
		c.Relay.Close()
	}
}

// runConference starts the engine, enters the room via enter, and drives
// the in-room view until the user leaves or the engine dies.
func (c *ConnectionContext) runConference(enter func(ctx context.Context) (string, error)) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Engine.Run(runCtx)
	}()

	roomID, err := enter(runCtx)
	if err != nil {
		cancel()
		<-done
		return err
	}

	uiErr := ui.RunConference(c.Engine, c.Engine.Events(), roomID, c.UserID)

	c.Engine.LeaveRoom(context.Background())
	cancel()
	<-done
	return uiErr
}
