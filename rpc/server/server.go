package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/filestore"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/serializer"
	"github.com/ValentinKolb/davlock/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/spf13/afero"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc")

var unknownNamespaceRequests = metrics.NewCounter(`davlock_rpc_unknown_namespace_total`)

// serverNamespace is a namespace served by the RPC server together with the
// file backed stores it consists of
type serverNamespace struct {
	Namespace
	locks *filestore.LockStore
	props *filestore.PropertyStore
}

// close writes pending changes and closes both stores
func (ns *serverNamespace) close() error {
	return errors.Join(ns.locks.Close(), ns.props.Close())
}

// RPCServer serves the lock managers and property stores of all configured
// namespaces over a transport
type RPCServer struct {
	config      common.ServerConfig
	transport   transport.IRPCServerTransport
	serializer  serializer.IRPCSerializer
	fs          afero.Fs
	namespaces  *xsync.MapOf[string, *serverNamespace]
	lockAdapter IRPCServerAdapter
	propAdapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	return &RPCServer{
		config:      config,
		transport:   transport,
		serializer:  serializer,
		fs:          afero.NewOsFs(),
		namespaces:  xsync.NewMapOf[string, *serverNamespace](),
		lockAdapter: NewLockManagerServerAdapter(),
		propAdapter: NewPropertyStoreServerAdapter(),
	}
}

// WithFs replaces the file system the lock and property files are kept in
func (s *RPCServer) WithFs(fs afero.Fs) *RPCServer {
	s.fs = fs
	return s
}

// Serve starts the RPC server
// This function will initialize the namespaces and start the transport layer.
// It returns after Shutdown has been called or SIGINT / SIGTERM was received,
// after all pending changes have been written.
func (s *RPCServer) Serve() error {
	if err := s.Open(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		Logger.Infof("Shutting down RPC server")
		if err := s.transport.Close(); err != nil {
			Logger.Errorf("Failed to close transport: %v", err)
		}
	}()

	listenErr := s.transport.Listen(s.config)
	stop()

	return errors.Join(listenErr, s.Close())
}

// Shutdown stops the transport, Serve then closes all namespaces and returns
func (s *RPCServer) Shutdown() error {
	return s.transport.Close()
}

// Open validates the configuration, opens the stores of all namespaces and
// registers the request handler at the transport
func (s *RPCServer) Open() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := common.InitLoggers(s.config); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	opts := filestore.Options{Fs: s.fs, WriteInterval: s.config.WriteInterval}

	for _, name := range s.config.Namespaces {
		locks, err := filestore.OpenLockStore(s.config.LockFile(name), s.config.LockConfig(name), opts)
		if err != nil {
			return errors.Join(fmt.Errorf("failed to open locks of namespace %s: %w", name, err), s.Close())
		}

		props, err := filestore.OpenPropertyStore(s.config.PropertyFile(name), name, opts)
		if err != nil {
			return errors.Join(
				fmt.Errorf("failed to open properties of namespace %s: %w", name, err),
				locks.Close(),
				s.Close(),
			)
		}

		s.namespaces.Store(name, &serverNamespace{
			Namespace: Namespace{Locks: locks, Props: props},
			locks:     locks,
			props:     props,
		})
		Logger.Infof("opened namespace %s (%d locks)", name, locks.Count())
	}

	s.transport.RegisterHandler(s.handle)

	Logger.Infof("davlock setup completed successfully")
	return nil
}

// Close writes all pending changes and closes the stores of all namespaces
func (s *RPCServer) Close() error {
	var errs []error
	s.namespaces.Range(func(name string, ns *serverNamespace) bool {
		if err := ns.close(); err != nil {
			Logger.Errorf("failed to close namespace %s: %v", name, err)
			errs = append(errs, err)
		}
		s.namespaces.Delete(name)
		return true
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handle deserializes a request, lets the matching adapter process it and
// serializes the response
func (s *RPCServer) handle(namespace string, req []byte) []byte {
	start := time.Now()
	var msg common.Message
	var resp *common.Message

	ns, ok := s.namespaces.Load(namespace)
	switch {
	case !ok:
		unknownNamespaceRequests.Inc()
		resp = &common.Message{MsgType: common.MsgTError}
		resp.SetError(fmt.Errorf("%w: %s", common.ErrUnknownNamespace, namespace))
	default:
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			resp = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
			break
		}
		resp = s.adapterFor(msg.MsgType).Handle(&msg, ns.Namespace)

		metrics.GetOrCreateHistogram(fmt.Sprintf(`davlock_rpc_request_duration_seconds{namespace=%q,type=%q}`,
			namespace, msg.MsgType)).UpdateDuration(start)
		if resp.ErrCode != common.ErrCodeNone {
			metrics.GetOrCreateCounter(fmt.Sprintf(`davlock_rpc_errors_total{namespace=%q,code=%q}`,
				namespace, resp.ErrCode)).Inc()
		}
	}

	// Return result
	data, err := s.serializer.Serialize(*resp)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		data, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return data
}

// adapterFor selects the adapter responsible for a message type
func (s *RPCServer) adapterFor(msgType common.MessageType) IRPCServerAdapter {
	if msgType >= common.MsgTPROPGet && msgType <= common.MsgTPROPMove {
		return s.propAdapter
	}
	return s.lockAdapter
}
