package server

import (
	"fmt"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"github.com/ValentinKolb/davlock/rpc/common"
)

func NewLockManagerServerAdapter() IRPCServerAdapter {
	return &lockMgrServerAdapter{}
}

type lockMgrServerAdapter struct{}

func (adapter *lockMgrServerAdapter) Handle(req *common.Message, ns Namespace) (resp *common.Message) {
	// Check for nil lock manager
	locks := ns.Locks
	if locks == nil {
		return common.NewErrorResponse("handler: lock manager is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTLCKAdd:
		lock, err := locks.AddLock(req.LockRequest())
		return common.NewAddLockResponse(lock, err)
	case common.MsgTLCKGet:
		lock, ok, err := locks.GetLock(req.Token, req.Path)
		return common.NewGetLockResponse(lock, ok, err)
	case common.MsgTLCKList:
		list, err := locks.GetLocks(req.Path, req.Selection, nil)
		return common.NewGetLocksResponse(list, err)
	case common.MsgTLCKConflicts:
		var lockType davlock.LockType
		if req.LockType != nil {
			lockType = *req.LockType
		}
		list, err := locks.GetConflictingLocks(req.Path, lockType, req.Selection, req.OwnerID)
		return common.NewGetConflictingLocksResponse(list, err)
	case common.MsgTLCKRefresh:
		if req.Lock == nil {
			return common.NewRefreshLockResponse(davlock.ActiveLock{}, false, errMissingLock)
		}
		lock, ok, err := locks.RefreshLock(*req.Lock, req.TimeoutPtr())
		return common.NewRefreshLockResponse(lock, ok, err)
	case common.MsgTLCKRemove:
		if req.Lock == nil {
			return common.NewRemoveLockResponse(false, errMissingLock)
		}
		ok, err := locks.RemoveLock(*req.Lock)
		return common.NewRemoveLockResponse(ok, err)
	case common.MsgTLCKRemoveTree:
		ok, err := locks.RemoveLocks(req.Path, req.Mode)
		return common.NewRemoveLocksResponse(ok, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC LockManagerAdapter - Unsupported message type: %s", req.MsgType))
	}
}

var errMissingLock = fmt.Errorf("%w: request without lock", davlock.ErrInvalidArgument)
