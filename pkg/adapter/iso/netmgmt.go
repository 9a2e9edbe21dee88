package iso

import (
	"context"

	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// handleNetMgmt answers 0800 traffic without involving the Handler. Sign-on
// and sign-off flip the session flag; echoes approve unconditionally; key
// exchange is delegated to the crypto seam.
func (c *session) handleNetMgmt(ctx context.Context, req *iso8583.Message, r *responder) {
	code := req.FieldOr(iso8583.FieldNetMgmtCode, "")
	reply := iso8583.NewMessage(req.MTI())
	reply.EchoFrom(req, iso8583.FieldNetMgmtCode, iso8583.FieldInstitutionID)

	switch code {
	case iso8583.NetMgmtSignOn:
		c.signedOn.Store(true)
		logger.Info("channel signed on",
			"channel", c.adapter.config.Channel, "client", c.clientID,
			"institution", req.FieldOr(iso8583.FieldInstitutionID, ""))
		reply.SetField(iso8583.FieldResponseCode, iso8583.RespApproved)

	case iso8583.NetMgmtSignOff:
		c.signedOn.Store(false)
		logger.Info("channel signed off",
			"channel", c.adapter.config.Channel, "client", c.clientID)
		reply.SetField(iso8583.FieldResponseCode, iso8583.RespApproved)

	case iso8583.NetMgmtEcho:
		reply.SetField(iso8583.FieldResponseCode, iso8583.RespApproved)

	case iso8583.NetMgmtKeyExchange:
		kcv, err := c.adapter.crypto.ExchangeKey(ctx, req)
		if err != nil {
			logger.Error("key exchange failed",
				"client", c.clientID, "error", err)
			reply.SetField(iso8583.FieldResponseCode, iso8583.RespSystemMalfunction)
			break
		}
		if kcv != "" {
			reply.SetField(iso8583.FieldAdditionalData, kcv)
		}
		reply.SetField(iso8583.FieldResponseCode, iso8583.RespApproved)

	default:
		logger.Warn("unknown network management code",
			"client", c.clientID, "code", code)
		reply.SetField(iso8583.FieldResponseCode, iso8583.RespInvalidTransaction)
	}

	if _, err := r.Respond(reply); err != nil {
		logger.Warn("network management reply failed",
			"client", c.clientID, "code", code, "error", err)
	}
}
