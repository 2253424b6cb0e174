package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/services"
	"github.com/wfunc/scorekeeper/state"
)

// ServiceName is the name clients use, e.g. "Scorekeeper.Statistics".
const ServiceName = "Scorekeeper"

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the read-only scorekeeper
// service on a private rpc.Server.
func NewServer(addr string, scores *services.ScoreService) (*Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, NewScorekeeperService(scores)); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpcServer,
	}, nil
}

// Addr is the bound address, useful when addr asked for port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// ScorekeeperService exposes statistics and the session list.
// Methods follow the net/rpc signature: exported arguments, pointer reply,
// error result.
type ScorekeeperService struct {
	scores *services.ScoreService
}

func NewScorekeeperService(scores *services.ScoreService) *ScorekeeperService {
	return &ScorekeeperService{scores: scores}
}

type StatisticsArgs struct {
	// SkipDerived leaves out the live overview.
	SkipDerived bool
}

type StatisticsReply struct {
	Report services.StatisticsReport
}

func (s *ScorekeeperService) Statistics(args *StatisticsArgs, reply *StatisticsReply) error {
	reply.Report = s.scores.Statistics()
	if args.SkipDerived {
		reply.Report.Derived = state.DerivedStatistics{}
	}
	return nil
}

type SessionsArgs struct {
	// PresetID filters the list when set.
	PresetID string
}

type SessionsReply struct {
	Sessions []services.SessionSummary
}

func (s *ScorekeeperService) Sessions(args *SessionsArgs, reply *SessionsReply) error {
	for _, summary := range s.scores.Sessions() {
		if args.PresetID != "" && summary.PresetID != args.PresetID {
			continue
		}
		reply.Sessions = append(reply.Sessions, summary)
	}
	return nil
}
