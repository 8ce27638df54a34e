package server

import (
	"fmt"
	"github.com/ValentinKolb/davlock/rpc/common"
)

func NewPropertyStoreServerAdapter() IRPCServerAdapter {
	return &propStoreServerAdapter{}
}

type propStoreServerAdapter struct{}

func (adapter *propStoreServerAdapter) Handle(req *common.Message, ns Namespace) *common.Message {
	// Check for nil store
	props := ns.Props
	if props == nil {
		return common.NewErrorResponse("handler: property store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTPROPGet:
		list, err := props.Get(req.Path)
		return common.NewGetPropsResponse(common.PropertyList(list), err)
	case common.MsgTPROPSet:
		err := props.Set(req.Path, common.PropertyMap(req.Props), req.Remove)
		return common.NewPropsResponse(req.MsgType, 0, err)
	case common.MsgTPROPDelete:
		n, err := props.Delete(req.Path, req.Recursive)
		return common.NewPropsResponse(req.MsgType, n, err)
	case common.MsgTPROPCopy:
		n, err := props.Copy(req.Path, req.Dest, req.Recursive)
		return common.NewPropsResponse(req.MsgType, n, err)
	case common.MsgTPROPMove:
		n, err := props.Move(req.Path, req.Dest)
		return common.NewPropsResponse(req.MsgType, n, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC PropertyStoreAdapter - Unsupported message type: %s", req.MsgType))
	}
}
