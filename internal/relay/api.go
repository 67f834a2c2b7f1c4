package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ysxemail003-cpu/ipv6conf/internal/identity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxMessageSize,
	WriteBufferSize: maxMessageSize,

	// Browsers are not a supported client, so origin checks buy nothing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the conference server: room directory, status endpoints, and
// the signaling relay.
type Server struct {
	addr      string
	port      int
	directory *Directory
	hub       *Hub
	started   time.Time
}

// NewServer builds a server listening on addr (e.g. "[::]:5000"). port is
// what /api/server_info advertises to clients.
func NewServer(addr string, port int) *Server {
	directory := NewDirectory()
	return &Server{
		addr:      addr,
		port:      port,
		directory: directory,
		hub:       NewHub(directory),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now()
	go s.hub.Run()

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router(),
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("conference server listening", "addr", s.addr, "ipv6", DetectAddress())
		errs <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/status", s.handleStatus)
		api.GET("/server_info", s.handleServerInfo)
		api.GET("/rooms", s.handleListRooms)
		api.POST("/rooms", s.handleCreateRoom)
		api.POST("/rooms/:id/join", s.handleJoinRoom)
		api.DELETE("/rooms/:id/join", s.handleLeaveRoom)
	}
	r.GET("/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "healthy"})
}

func (s *Server) handleStatus(c *gin.Context) {
	rooms, users := s.directory.Counts()

	// The reachability probe does DNS over IPv6; keep it on a short leash
	// so a broken resolver cannot stall the endpoint.
	probeCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"active_rooms":   rooms,
		"active_users":   users,
		"ipv6_reachable": Available(probeCtx),
		"uptime":         time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"ipv6_address": DetectAddress(),
		"port":         s.port,
	})
}

func (s *Server) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": s.directory.List()})
}

type createRoomRequest struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	UserID   string `json:"user_id" binding:"required"`
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	roomID := req.RoomID
	if roomID == "" {
		roomID = identity.NewRoomID()
	}
	info, err := s.directory.Create(roomID, req.RoomName, req.UserID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": []RoomInfo{info}})
}

type memberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	info, err := s.directory.Join(c.Param("id"), req.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": []RoomInfo{info}})
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	s.directory.Leave(c.Param("id"), req.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}
	client := newClient(s.hub, conn)
	s.hub.register <- client
	go client.writePump()
	go client.readPump()
}
