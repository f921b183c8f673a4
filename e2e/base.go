package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"stowroom/auth"
	"stowroom/domain"
)

// BaseSessionSuite connects scenario tests to a live coordinator. The
// suite is skipped entirely unless COORDINATOR_ADDR is set.
type BaseSessionSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSessionSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.CoordinatorAddr == "" {
		s.T().Skip("COORDINATOR_ADDR not set, skipping session scenarios")
	}
}

// Header prints a colorized step banner in the test logs.
func (s *BaseSessionSuite) Header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Connect dials the room websocket as the given collaborator, minting a
// token with the shared secret the way the REST layer would.
func (s *BaseSessionSuite) Connect(room string, identity domain.Identity) *websocket.Conn {
	token, err := auth.GenerateToken(identity, time.Minute, []byte(s.Config.JWTSecret))
	s.Require().NoError(err)

	url := fmt.Sprintf("%s/rooms/%s/ws?token=%s",
		"ws"+strings.TrimPrefix(s.Config.CoordinatorAddr, "http"), room, token)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	if resp != nil {
		resp.Body.Close()
	}
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// ReadFrame reads one text frame with a deadline and decodes it.
func (s *BaseSessionSuite) ReadFrame(conn *websocket.Conn) map[string]any {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)

	var frame map[string]any
	s.Require().NoError(json.Unmarshal(data, &frame))
	return frame
}

func (s *BaseSessionSuite) Send(conn *websocket.Conn, payload string) {
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

// Present queries the control-plane presence endpoint.
func (s *BaseSessionSuite) Present(room string) []domain.PresentUser {
	resp, err := http.Get(fmt.Sprintf("%s/rooms/%s/presence", s.Config.CoordinatorAddr, room))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		Users []domain.PresentUser `json:"users"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	return payload.Users
}

// WaitPresent polls presence until the user's admission is visible.
func (s *BaseSessionSuite) WaitPresent(room, userID string) {
	s.Require().Eventually(func() bool {
		for _, u := range s.Present(room) {
			if u.UserID == userID {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)
}
