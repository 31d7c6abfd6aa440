// Package client connects the decision core to a Doppelkopf lobby server
// over a duplex JSON websocket channel.
//
// The read loop owns the lobby view, the observed action history and kernel
// dispatch; kernel completion callbacks run on the worker pool and only
// touch the outgoing queue, which is drained in order by a single writer.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maikel/doppelkopf/agent"
	"github.com/maikel/doppelkopf/engine"
	"github.com/maikel/doppelkopf/internal/config"
	"github.com/maikel/doppelkopf/internal/protocol"
)

// Client is one agent seat at a lobby table.
type Client struct {
	opts  config.Options
	log   *logrus.Entry
	id    uuid.UUID
	table string

	conn  *websocket.Conn
	sendQ chan []byte

	state    view
	observed []engine.Action

	pool           *Pool
	actionKernel   *agent.ActionKernel
	contractKernel *agent.ContractKernel
	initialHand    []engine.Card
}

// New creates a client for the given configuration.
func New(opts config.Options, log *logrus.Logger) *Client {
	id := uuid.New()
	table := opts.TableName
	if table == "" {
		table = "dokobot-" + id.String()[:8]
	}
	return &Client{
		opts:  opts,
		log:   log.WithField("client", id.String()[:8]),
		id:    id,
		table: table,
		sendQ: make(chan []byte, 64),
		state: view{},
		pool:  NewPool(1),
	}
}

// Run dials the lobby server and processes frames until the context is
// cancelled or the connection fails.
func (c *Client) Run(ctx context.Context) error {
	url := fmt.Sprintf("ws://%s:%s/", c.opts.Host, c.opts.Port)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", url, err)
	}
	c.conn = conn
	defer conn.Close(websocket.StatusNormalClosure, "")
	defer c.pool.Close()
	c.log.WithField("url", url).Info("connected to lobby")

	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()
	go c.writeLoop(writeCtx)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("client: read: %w", err)
		}
		c.handleMessage(data)
	}
}

// writeLoop drains the outgoing queue in order.
func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.sendQ:
			if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
				c.log.WithError(err).Error("write failed")
				return
			}
		}
	}
}

// send marshals v onto the in-order outgoing queue. Safe to call from
// kernel callbacks.
func (c *Client) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("marshal outgoing message")
		return
	}
	c.sendQ <- data
}

// handleMessage processes one inbound frame. Malformed frames are logged
// and dropped; the session stays alive.
func (c *Client) handleMessage(data []byte) {
	var input map[string]json.RawMessage
	if err := json.Unmarshal(data, &input); err != nil {
		c.log.WithError(err).Warn("ill-formed message from server, dropping")
		return
	}
	if errMsg, ok := input["error"]; ok {
		c.log.WithField("error", string(errMsg)).Warn("server reported an error")
		return
	}
	if _, ok := input["command"]; !ok {
		var patch map[string]any
		if err := json.Unmarshal(data, &patch); err != nil {
			c.log.WithError(err).Warn("ill-formed state patch, dropping")
			return
		}
		mergePatch(c.state, patch)
	}
	// Hold off until the server sent the table list.
	if _, ok := c.state.field("tables"); !ok {
		return
	}
	c.ensureSeat()

	var command string
	if raw, ok := input["command"]; ok {
		if err := json.Unmarshal(raw, &command); err != nil {
			c.log.Warn("non-string command, dropping")
			return
		}
	}
	switch command {
	case "observe":
		c.onObserve(input["action"])
	case "play":
		c.onPlay()
	case "declare":
		c.onDeclare()
	case "specialize":
		c.onSpecialize()
	}
}

// ensureSeat walks the table membership flow: create the configured table
// when missing, join it, then take the first free seat.
func (c *Client) ensureSeat() {
	joined, ok := c.state.field("joined_table")
	if !ok || joined == nil {
		tables, _ := c.state.field("tables")
		list, _ := tables.([]any)
		exists := false
		for _, t := range list {
			table, _ := t.(map[string]any)
			if name, _ := table["name"].(string); name == c.table {
				exists = true
				break
			}
		}
		if exists {
			c.send(map[string]any{"command": "join_table", "name": c.table})
		} else {
			c.send(map[string]any{"command": "create_table", "name": c.table})
		}
		return
	}
	if id, ok := c.state.field("joined_table", "player_id"); !ok || id == nil {
		players, _ := c.state.field("joined_table", "players")
		list, _ := players.([]any)
		for seat, p := range list {
			if p == nil {
				c.send(map[string]any{"command": "take_seat", "seat": seat})
				return
			}
		}
		c.log.Error("no seat left to take")
	}
}

// onObserve records one observed action.
func (c *Client) onObserve(raw json.RawMessage) {
	if raw == nil {
		c.log.Warn("observe without action, dropping")
		return
	}
	action, err := protocol.DecodeAction(raw)
	if err != nil {
		c.log.WithError(err).Warn("undecodable action, dropping")
		return
	}
	c.observed = append(c.observed, action)
	c.log.WithFields(logrus.Fields{
		"player": action.Player(),
		"action": string(raw),
	}).Info("observed action")
}

// stateRules decodes the running contract from the lobby view.
func (c *Client) stateRules() (engine.Contract, error) {
	raw, ok := c.state.rawField("joined_table", "game", "rules")
	if !ok {
		return nil, fmt.Errorf("%w: no rules in state", protocol.ErrParse)
	}
	var rules protocol.Rules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrParse, err)
	}
	return protocol.DecodeRules(rules)
}

// onPlay launches the action kernel and submits the most visited move.
func (c *Client) onPlay() {
	seat, ok := c.state.intField("joined_table", "player_id")
	if !ok {
		c.log.Warn("play requested before a seat was taken")
		return
	}
	thisPlayer := engine.Player(seat)
	rules, err := c.stateRules()
	if err != nil {
		c.log.WithError(err).Warn("play requested without valid rules")
		return
	}
	if c.initialHand == nil {
		c.log.Warn("play requested before the hand was dealt")
		return
	}
	initialPlayer := thisPlayer
	for _, a := range c.observed {
		if a.IsCard() {
			initialPlayer = a.Player()
			break
		}
	}
	if c.actionKernel == nil {
		c.actionKernel = agent.NewActionKernel(c.opts.ActionKernel, uint64(time.Now().UnixNano()))
	}
	err = c.actionKernel.AsyncRollout(c.pool, rules, initialPlayer, c.initialHand,
		c.observed, func(err error, stats *agent.Stats) {
			if err != nil {
				c.log.WithError(err).Warn("action computation did not finish")
				return
			}
			best := stats.Best()
			if best < 0 {
				c.log.Error("no legal action found")
				return
			}
			c.reportStats(thisPlayer, stats, best)
			action, encodeErr := protocol.EncodeAction(stats.Actions[best])
			if encodeErr != nil {
				c.log.WithError(encodeErr).Error("encode chosen action")
				return
			}
			c.send(map[string]any{"command": "play", "action": action})
		})
	if err != nil {
		c.log.WithError(err).Warn("action kernel busy")
	}
}

// reportStats logs the per-child statistics of a finished search.
func (c *Client) reportStats(p engine.Player, stats *agent.Stats, best int) {
	for i := range stats.Actions {
		entry := c.log.WithFields(logrus.Fields{
			"action": stats.Actions[i].String(),
			"visits": stats.Visits[i],
			"eyes":   stats.ExpectedEyes(i, p),
			"score":  stats.ExpectedScore(i, p),
		})
		if i == best {
			entry.Info("chosen action statistics")
		} else {
			entry.Debug("action statistics")
		}
	}
}

// onDeclare captures the dealt hand and launches the contract kernel.
func (c *Client) onDeclare() {
	rawHand, ok := c.state.rawField("joined_table", "game", "hand")
	if !ok {
		c.log.Warn("declare requested without a hand in state")
		return
	}
	hand, err := protocol.DecodeHand(rawHand)
	if err != nil {
		c.log.WithError(err).Warn("undecodable hand, dropping declare")
		return
	}
	seat, ok := c.state.intField("joined_table", "player_id")
	if !ok {
		c.log.Warn("declare requested before a seat was taken")
		return
	}
	for i := range hand {
		hand[i] = hand[i].WithPlayer(engine.Player(seat))
	}
	c.initialHand = hand
	c.observed = c.observed[:0]
	initialSeat, ok := c.state.intField("joined_table", "game", "initial_player")
	if !ok {
		initialSeat = seat
	}
	if c.contractKernel == nil {
		c.contractKernel = agent.NewContractKernel(c.opts.ContractKernel, uint64(time.Now().UnixNano()))
	}
	err = c.contractKernel.AsyncRollout(c.pool, engine.Player(initialSeat), hand,
		func(err error, declared engine.DeclaredContract) {
			if err != nil {
				c.log.WithError(err).Warn("contract computation did not finish")
				return
			}
			c.send(map[string]any{
				"command":           "choose",
				"declared_contract": protocol.EncodeDeclaredContract(declared),
			})
		})
	if err != nil {
		c.log.WithError(err).Warn("contract kernel busy")
	}
}

// onSpecialize submits the contract published by the contract kernel.
func (c *Client) onSpecialize() {
	seat, ok := c.state.intField("joined_table", "player_id")
	if !ok {
		c.log.Warn("specialize requested before a seat was taken")
		return
	}
	if c.contractKernel == nil {
		c.log.Error("specialize requested before any declaration")
		return
	}
	best, ok := c.contractKernel.BestRules()
	if !ok {
		c.log.Error("no published contract to specialize")
		return
	}
	specialized, err := protocol.EncodeSpecializedContract(engine.SpecializedContract{
		Player: engine.Player(seat),
		Rules:  best,
	})
	if err != nil {
		c.log.WithError(err).Error("encode specialized contract")
		return
	}
	c.send(map[string]any{
		"command":              "choose",
		"specialized_contract": specialized,
	})
}
