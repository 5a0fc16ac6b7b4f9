// Package handler implements the HTTP handlers of the console.
package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-console/internal/console/biz"
	"github.com/kart-io/mongo-console/internal/pkg/httputils"
	"github.com/kart-io/mongo-console/pkg/component/mongodb"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
	"github.com/kart-io/mongo-console/pkg/utils/json"
	"github.com/kart-io/mongo-console/pkg/utils/response"
	"github.com/kart-io/mongo-console/pkg/utils/validator"
)

// Message prefixes of failed config responses.
const (
	PrefixConfig  = "Config error"
	PrefixOptions = "Error in connection options"
	PrefixConnect = "Connect error"
)

// Success messages of the config routes.
const (
	MsgAdded     = "Config successfully added"
	MsgUpdated   = "Config successfully updated"
	MsgDeleted   = "Config successfully deleted"
	MsgValidated = "Credentials validated"
)

// ConfigHandler serves the /config routes.
type ConfigHandler struct {
	sync *biz.Synchronizer
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(sync *biz.Synchronizer) *ConfigHandler {
	return &ConfigHandler{sync: sync}
}

// AddConfigRequest is the named form of the add body. The positional form
// [name, conn_string, conn_options, conn_username, conn_password] is
// accepted as well, either as an array or as an object keyed "0" to "4".
type AddConfigRequest struct {
	Name         string `json:"name" validate:"required,trimmed"`
	ConnString   string `json:"conn_string" validate:"required,mongouri"`
	ConnOptions  any    `json:"conn_options"`
	ConnUsername string `json:"conn_username"`
	ConnPassword string `json:"conn_password"`
}

// UpdateConfigRequest is the update body. An empty conn_name keeps the
// current name.
type UpdateConfigRequest struct {
	CurrConfig   string `json:"curr_config" validate:"required"`
	ConnName     string `json:"conn_name" validate:"trimmed"`
	ConnString   string `json:"conn_string" validate:"required,mongouri"`
	ConnUsername string `json:"conn_username"`
	ConnPassword string `json:"conn_password"`
}

// DropConfigRequest is the drop body.
type DropConfigRequest struct {
	CurrConfig string `json:"curr_config" validate:"required"`
}

// ConnectPrivateRequest is the connect_to_private body.
type ConnectPrivateRequest struct {
	CurrConfig   string `json:"curr_config" validate:"required"`
	ConnString   string `json:"conn_string" validate:"required,mongouri"`
	ConnUsername string `json:"conn_username"`
	ConnPassword string `json:"conn_password"`
}

// AddConfig handles POST /config/add_config. A taken name is reported before
// the options and the connection string are looked at.
func (h *ConfigHandler) AddConfig(c *gin.Context) {
	var req AddConfigRequest
	if err := decodeAdd(c, &req); err != nil {
		httputils.WriteMessageError(c, PrefixConfig, err)
		return
	}

	if h.sync.Exists(req.Name) {
		httputils.WriteMessageError(c, PrefixConfig, errors.ErrDuplicateName)
		return
	}

	options, err := optionsString(req.ConnOptions)
	if err != nil {
		httputils.WriteMessageError(c, PrefixOptions, err)
		return
	}

	if err := validateStruct(&req); err != nil {
		httputils.WriteMessageError(c, PrefixConfig, err)
		return
	}

	err = h.sync.AddConfig(c.Request.Context(), biz.AddRequest{
		Name:             req.Name,
		ConnectionString: req.ConnString,
		Options:          options,
		Username:         req.ConnUsername,
		Password:         req.ConnPassword,
	})
	if err != nil {
		logger.Warnw("Add config failed", "name", req.Name, "uri", mongodb.Redact(req.ConnString), "error", errors.FromError(err).Reason())
		httputils.WriteMessageError(c, configPrefix(err, PrefixConfig), err)
		return
	}

	httputils.WriteMessage(c, response.Message{Msg: MsgAdded})
}

// UpdateConfig handles POST /config/update_config.
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteMessageError(c, PrefixConfig, err)
		return
	}

	res, err := h.sync.UpdateConfig(c.Request.Context(), biz.UpdateRequest{
		CurrentName:      req.CurrConfig,
		NewName:          req.ConnName,
		ConnectionString: req.ConnString,
		Username:         req.ConnUsername,
		Password:         req.ConnPassword,
	})
	if err != nil {
		logger.Warnw("Update config failed", "name", req.CurrConfig, "uri", mongodb.Redact(req.ConnString), "error", errors.FromError(err).Reason())
		httputils.WriteMessageError(c, configPrefix(err, PrefixConfig), err)
		return
	}

	httputils.WriteMessage(c, response.Message{Msg: MsgUpdated, Name: res.Name, String: res.ConnectionString})
}

// DropConfig handles POST /config/drop_config.
func (h *ConfigHandler) DropConfig(c *gin.Context) {
	var req DropConfigRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteMessageError(c, PrefixConfig, err)
		return
	}

	if err := h.sync.DropConfig(c.Request.Context(), req.CurrConfig); err != nil {
		httputils.WriteMessageError(c, PrefixConfig, err)
		return
	}

	httputils.WriteMessage(c, response.Message{Msg: MsgDeleted})
}

// ConnectPrivate handles POST /config/connect_to_private.
func (h *ConfigHandler) ConnectPrivate(c *gin.Context) {
	var req ConnectPrivateRequest
	if err := bind(c, &req); err != nil {
		httputils.WriteMessageError(c, PrefixConnect, err)
		return
	}

	res, err := h.sync.ConnectPrivate(c.Request.Context(), biz.PrivateRequest{
		CurrentName:      req.CurrConfig,
		ConnectionString: req.ConnString,
		Username:         req.ConnUsername,
		Password:         req.ConnPassword,
	})
	if err != nil {
		logger.Warnw("Private connect failed", "name", req.CurrConfig, "error", errors.FromError(err).Reason())
		httputils.WriteMessageError(c, configPrefix(err, PrefixConnect), err)
		return
	}

	httputils.WriteMessage(c, response.Message{Msg: MsgValidated, Name: res.Name, String: res.ConnectionString})
}

// configPrefix picks the message prefix for err. Option errors always use
// their own prefix.
func configPrefix(err error, fallback string) string {
	if errors.IsCode(err, errors.ErrInvalidOptions.Code) {
		return PrefixOptions
	}
	return fallback
}

func bind(c *gin.Context, obj any) error {
	data, err := c.GetRawData()
	if err != nil {
		return errors.ErrBadRequest.WithCause(err)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return errors.ErrBadRequest.WithCause(err)
	}
	return validateStruct(obj)
}

// decodeAdd decodes the positional or the named add body without
// validating it.
func decodeAdd(c *gin.Context, req *AddConfigRequest) error {
	data, err := c.GetRawData()
	if err != nil {
		return errors.ErrBadRequest.WithCause(err)
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return errors.ErrBadRequest.WithCause(err)
	}

	switch b := body.(type) {
	case []any:
		return fromPositional(b, req)
	case map[string]any:
		if items, ok := indexedItems(b); ok {
			return fromPositional(items, req)
		}
	}

	if err := json.Unmarshal(data, req); err != nil {
		return errors.ErrBadRequest.WithCause(err)
	}
	return nil
}

// maxPositional is the number of fields in a positional add body.
const maxPositional = 5

// indexedItems turns an object keyed only by positions ("0", "1", ...) into
// the equivalent array. Form encoders send positional bodies this way.
func indexedItems(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}

	items := make([]any, 0, maxPositional)
	for key, v := range m {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= maxPositional || strconv.Itoa(i) != key {
			return nil, false
		}
		for len(items) <= i {
			items = append(items, nil)
		}
		items[i] = v
	}
	return items, true
}

func fromPositional(items []any, req *AddConfigRequest) error {
	str := func(i int) (string, error) {
		if i >= len(items) || items[i] == nil {
			return "", nil
		}
		s, ok := items[i].(string)
		if !ok {
			return "", errors.ErrBadRequest.WithMessagef("body[%d] must be a string", i)
		}
		return s, nil
	}

	var err error
	if req.Name, err = str(0); err != nil {
		return err
	}
	if req.ConnString, err = str(1); err != nil {
		return err
	}
	if len(items) > 2 {
		req.ConnOptions = items[2]
	}
	if req.ConnUsername, err = str(3); err != nil {
		return err
	}
	if req.ConnPassword, err = str(4); err != nil {
		return err
	}
	return nil
}

// optionsString normalizes conn_options, which clients send either as a
// JSON string or as an inline object.
func optionsString(v any) (string, error) {
	switch o := v.(type) {
	case nil:
		return "", nil
	case string:
		return o, nil
	case map[string]any:
		out, err := json.Marshal(o)
		if err != nil {
			return "", errors.ErrInvalidOptions.WithCause(err)
		}
		return string(out), nil
	default:
		return "", errors.ErrInvalidOptions.WithMessagef("connection options must be an object, got %T", v)
	}
}

func validateStruct(obj any) error {
	if verrs := validator.Struct(obj); verrs.HasErrors() {
		return errors.ErrBadRequest.WithMessage(strings.Join(verrs.Messages(), ", "))
	}
	return nil
}
