package client

import (
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/common"
	"github.com/ValentinKolb/davlock/rpc/serializer"
	"github.com/ValentinKolb/davlock/rpc/transport"
)

// NewRPCLockMgr creates a new RPC ILockManager
// The function takes a namespace, a config, a transport and a serializer as parameters
// It returns a davlock.ILockManager and an error
func NewRPCLockMgr(
	namespace string,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (davlock.ILockManager, error) {
	adapter, err := newClientAdapter(namespace, config, transport, serializer)
	if err != nil {
		return nil, err
	}
	return &rpcLockMgr{adapter}, nil
}

type rpcLockMgr struct {
	*rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the davlock package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcLockMgr) AddLock(req davlock.LockRequest) (davlock.ActiveLock, error) {
	resp, err := i.invoke(common.NewAddLockRequest(req), davlock.ErrDisposed)
	if err != nil {
		return davlock.ActiveLock{}, err
	}
	if resp.Lock == nil {
		return davlock.ActiveLock{}, fmt.Errorf("rpc: AddLock response without lock")
	}
	return *resp.Lock, nil
}

func (i *rpcLockMgr) GetLock(token, path string) (davlock.ActiveLock, bool, error) {
	resp, err := i.invoke(common.NewGetLockRequest(token, path), davlock.ErrDisposed)
	if err != nil || !resp.Ok || resp.Lock == nil {
		return davlock.ActiveLock{}, false, err
	}
	return *resp.Lock, true, nil
}

func (i *rpcLockMgr) GetLocks(path string, sel davlock.Selection, filter func(davlock.ActiveLock) bool) ([]davlock.ActiveLock, error) {
	resp, err := i.invoke(common.NewGetLocksRequest(path, sel), davlock.ErrDisposed)
	if err != nil {
		return nil, err
	}

	// functions can not be sent, so the filter is applied to the result
	if filter == nil {
		return resp.Locks, nil
	}
	locks := resp.Locks[:0]
	for _, lock := range resp.Locks {
		if filter(lock) {
			locks = append(locks, lock)
		}
	}
	return locks, nil
}

func (i *rpcLockMgr) GetConflictingLocks(path string, t davlock.LockType, sel davlock.Selection, ownerID string) ([]davlock.ActiveLock, error) {
	resp, err := i.invoke(common.NewGetConflictingLocksRequest(path, t, sel, ownerID), davlock.ErrDisposed)
	if err != nil {
		return nil, err
	}
	return resp.Locks, nil
}

func (i *rpcLockMgr) RefreshLock(lock davlock.ActiveLock, timeout *uint32) (davlock.ActiveLock, bool, error) {
	resp, err := i.invoke(common.NewRefreshLockRequest(lock, timeout), davlock.ErrDisposed)
	if err != nil || !resp.Ok || resp.Lock == nil {
		return davlock.ActiveLock{}, false, err
	}
	return *resp.Lock, true, nil
}

func (i *rpcLockMgr) RemoveLock(lock davlock.ActiveLock) (bool, error) {
	resp, err := i.invoke(common.NewRemoveLockRequest(lock), davlock.ErrDisposed)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcLockMgr) RemoveLocks(path string, mode davlock.RemoveMode) (bool, error) {
	resp, err := i.invoke(common.NewRemoveLocksRequest(path, mode), davlock.ErrDisposed)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

// Close closes the connection, the lock manager on the server stays open
func (i *rpcLockMgr) Close() error {
	return i.close()
}
