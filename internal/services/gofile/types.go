package gofile

import (
	"encoding/json"
	"errors"
	"strings"
)

const statusOK = "ok"

// ErrNoServerAvailable is returned when discovery yields no server in the requested zone.
var ErrNoServerAvailable = errors.New("no gofile server available")

// RemoteError is returned when the Gofile API answers with a non-ok status.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Envelope is the {status, data} wrapper around every Gofile API response
type Envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Server is a single entry of the discovery response
type Server struct {
	Name string `json:"name"`
	Zone string `json:"zone"`
}

// ServersData is the data payload of GET /servers
type ServersData struct {
	Servers []Server `json:"servers"`
}

// UploadData is the data payload of POST /uploadFile
type UploadData struct {
	DownloadPage string `json:"downloadPage"`
	Code         string `json:"code"`
	FileID       string `json:"fileId"`
	FileName     string `json:"fileName"`
	MD5          string `json:"md5"`
	ParentFolder string `json:"parentFolder"`
}

// HandleResponse returns the data of an ok envelope, or a RemoteError carrying
// the code that follows "error-" in the status.
func HandleResponse(env *Envelope) (json.RawMessage, error) {
	if env == nil {
		return nil, &RemoteError{Message: "empty response"}
	}
	if env.Status == statusOK {
		return env.Data, nil
	}
	if _, code, found := strings.Cut(env.Status, "error-"); found {
		return nil, &RemoteError{Message: code}
	}
	return nil, &RemoteError{Message: "response status is not ok and reason is unknown"}
}

// SelectServer returns the first server in the given zone, in list order.
func SelectServer(servers []Server, zone string) (Server, error) {
	for _, s := range servers {
		if s.Zone == zone {
			return s, nil
		}
	}
	return Server{}, ErrNoServerAvailable
}
