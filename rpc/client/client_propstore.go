package client

import (
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/lib/propstore"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/serializer"
	"github.com/ValentinKolb/davlock/rpc/transport"
)

// NewRPCPropertyStore creates a new RPC property store
// The function takes a namespace, a config, a transport and a serializer as parameters
// It returns a propstore.IStore and an error
func NewRPCPropertyStore(
	namespace string,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (propstore.IStore, error) {
	adapter, err := newClientAdapter(namespace, config, transport, serializer)
	if err != nil {
		return nil, err
	}
	return &rpcPropertyStore{adapter}, nil
}

type rpcPropertyStore struct {
	*rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the propstore package in store.go)
// --------------------------------------------------------------------------

func (i *rpcPropertyStore) Get(path string) (propstore.Properties, error) {
	resp, err := i.invoke(common.NewGetPropsRequest(path), propstore.ErrDisposed)
	if err != nil {
		return nil, err
	}
	return common.PropertyMap(resp.Props), nil
}

func (i *rpcPropertyStore) GetProperty(path string, name davlock.QName) ([]byte, bool, error) {
	props, err := i.Get(path)
	if err != nil {
		return nil, false, err
	}
	value, ok := props[name]
	return value, ok, nil
}

func (i *rpcPropertyStore) Set(path string, set propstore.Properties, remove []davlock.QName) error {
	_, err := i.invoke(common.NewSetPropsRequest(path, common.PropertyList(set), remove), propstore.ErrDisposed)
	return err
}

func (i *rpcPropertyStore) Delete(path string, recursive bool) (int, error) {
	resp, err := i.invoke(common.NewDeletePropsRequest(path, recursive), propstore.ErrDisposed)
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

func (i *rpcPropertyStore) Copy(src, dst string, recursive bool) (int, error) {
	resp, err := i.invoke(common.NewCopyPropsRequest(src, dst, recursive), propstore.ErrDisposed)
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

func (i *rpcPropertyStore) Move(src, dst string) (int, error) {
	resp, err := i.invoke(common.NewMovePropsRequest(src, dst), propstore.ErrDisposed)
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

// Close closes the connection, the property store on the server stays open
func (i *rpcPropertyStore) Close() error {
	return i.close()
}
