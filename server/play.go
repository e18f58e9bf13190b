package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/session"
)

// Wall generation defaults for a randomize op that leaves them unset.
const (
	defaultClusters = 8
	defaultSteps    = 200
	defaultDensity  = 0.25
)

// maxMessageSize bounds one client message; a larger one closes the socket.
const maxMessageSize = 1 << 20

// player drives one session over one websocket. The reader and writer run
// in their own goroutines; every session call happens on the loop.
type player struct {
	session *session.Session
	conn    *websocket.Conn
	pacer   *Pacer
	logger  *log.Entry

	commands chan ClientMessage
	send     chan ServerMessage
	done     chan struct{}

	// autoplay is false after a manual step until the next run op.
	autoplay bool
	phase    gridastar.Phase
	timer    *time.Timer
}

func newPlayer(s *session.Session, conn *websocket.Conn, pacer *Pacer) *player {
	return &player{
		session:  s,
		conn:     conn,
		pacer:    pacer,
		logger:   log.WithField("session", s.ID.String()),
		commands: make(chan ClientMessage),
		send:     make(chan ServerMessage, 64),
		done:     make(chan struct{}),
	}
}

func (p *player) serve() {
	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetPingHandler(func(message string) error {
		err := p.conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
		if err == websocket.ErrCloseSent {
			return nil
		} else if e, ok := err.(net.Error); ok && e.Timeout() {
			return nil
		}
		return err
	})
	go p.loopRead()
	go p.loopWrite()
	p.loop()
}

func (p *player) loopRead() {
	defer close(p.done)
	for {
		_, r, err := p.conn.NextReader()
		if err != nil {
			p.logger.WithField("op", "read").Debugf("connection closed: %v", err)
			return
		}
		var cm ClientMessage
		if err := json.NewDecoder(r).Decode(&cm); err != nil {
			p.logger.WithField("op", "read").Warnf("cannot decode message: %v", err)
			p.push(errorMessage(fmt.Errorf("%w: malformed message", gridastar.ErrInvalidInput)))
			continue
		}
		select {
		case p.commands <- cm:
		case <-p.done:
			return
		}
	}
}

// loopWrite only consumes, so a slow socket never blocks the loop for long.
func (p *player) loopWrite() {
	for {
		select {
		case message := <-p.send:
			w, err := p.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				p.logger.WithField("op", "write").Warnf("cannot get writer: %v", err)
				p.conn.Close()
				return
			}
			if err := json.NewEncoder(w).Encode(message); err != nil {
				p.logger.WithField("op", "write").Warnf("cannot encode: %v", err)
				p.conn.Close()
				return
			}
			if err := w.Close(); err != nil {
				p.logger.WithField("op", "write").Warnf("cannot flush: %v", err)
				p.conn.Close()
				return
			}
		case <-p.done:
			return
		}
	}
}

func (p *player) push(message ServerMessage) {
	select {
	case p.send <- message:
	case <-p.done:
	}
}

func (p *player) loop() {
	p.push(gridMessage(p.session))
	for {
		var tick <-chan time.Time
		if p.timer != nil {
			tick = p.timer.C
		}
		select {
		case cm := <-p.commands:
			p.handle(cm)
		case <-tick:
			p.timer = nil
			p.advance()
		case <-p.done:
			p.stopTimer()
			p.logger.Info("player left")
			return
		}
	}
}

func (p *player) handle(cm ClientMessage) {
	logger := p.logger.WithField("op", cm.Op)
	logger.Debug("command")
	if err := p.apply(cm); err != nil {
		logger.Debugf("rejected: %v", err)
		p.push(errorMessage(err))
	}
}

func (p *player) apply(cm ClientMessage) error {
	s := p.session
	switch cm.Op {
	case OpSelect:
		return p.edit(s.Select())
	case OpDraw:
		return p.edit(s.Draw(cm.Erase))
	case OpClick:
		return p.edit(s.Click(cm.cell()))
	case OpStart:
		return p.edit(s.SetStart(cm.cell()))
	case OpEnd:
		return p.edit(s.SetEnd(cm.cell()))
	case OpWall:
		return p.edit(s.SetWall(cm.cell()))
	case OpErase:
		return p.edit(s.EraseWall(cm.cell()))
	case OpRandomize:
		clusters, steps, density := cm.Clusters, cm.Steps, cm.Density
		if clusters <= 0 {
			clusters = defaultClusters
		}
		if steps <= 0 {
			steps = defaultSteps
		}
		if density <= 0 || density > 1 {
			density = defaultDensity
		}
		_, err := s.Randomize(rand.New(rand.NewSource(p.seed(cm))), clusters, steps, density)
		return p.edit(err)
	case OpMaze:
		_, err := s.Maze(rand.New(rand.NewSource(p.seed(cm))))
		return p.edit(err)
	case OpLayout:
		return p.edit(s.LoadLayout(strings.NewReader(cm.Layout)))
	case OpRun:
		p.autoplay = true
		if s.Running() {
			p.schedule(p.phase)
			return nil
		}
		if err := p.edit(s.Begin()); err != nil {
			return err
		}
		p.phase = gridastar.Searching
		p.schedule(p.phase)
		return nil
	case OpStep:
		p.autoplay = false
		p.stopTimer()
		if !s.Running() {
			if err := p.edit(s.Begin()); err != nil {
				return err
			}
			p.phase = gridastar.Searching
		}
		p.advance()
		return nil
	case OpSpeed:
		if cm.DelayMs < 0 {
			return fmt.Errorf("%w: negative delay %dms", gridastar.ErrInvalidInput, cm.DelayMs)
		}
		p.pacer.SetStepDelay(time.Duration(cm.DelayMs) * time.Millisecond)
		return nil
	case OpReset:
		p.stopTimer()
		s.Reset()
		p.push(gridMessage(s))
		return nil
	case OpGrid:
		p.push(gridMessage(s))
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", gridastar.ErrInvalidInput, cm.Op)
	}
}

func (p *player) seed(cm ClientMessage) int64 {
	if cm.Seed != 0 {
		return cm.Seed
	}
	return time.Now().UnixNano()
}

// edit sends the board after a successful change.
func (p *player) edit(err error) error {
	if err != nil {
		return err
	}
	p.push(gridMessage(p.session))
	return nil
}

// advance runs one step and forwards its events.
func (p *player) advance() {
	snapshot, err := p.session.Step()
	if err != nil {
		p.push(errorMessage(err))
		return
	}
	p.phase = snapshot.Phase
	for _, e := range snapshot.Events {
		p.push(ServerMessage{Type: TypeEvent, Event: viewEvent(e, snapshot)})
	}
	if snapshot.Done {
		p.push(gridMessage(p.session))
		return
	}
	if p.autoplay {
		p.schedule(snapshot.Phase)
	}
}

func (p *player) schedule(phase gridastar.Phase) {
	p.stopTimer()
	p.timer = time.NewTimer(p.pacer.Next(phase))
}

func (p *player) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
