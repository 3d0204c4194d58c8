// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/gabriel-vasile/mimetype"
	"github.com/richardlehane/mscfb"

	"github.com/ewfx/gaied-deep-learners/internal/models"
)

// MAPI property stream names inside the compound document. The suffix is the
// property tag: 001F = UTF-16LE string, 001E = 8-bit string, 0102 = binary.
const (
	propSubject          = "0037"
	propSenderName       = "0C1A"
	propSenderEmail      = "0C1F"
	propDisplayTo        = "0E04"
	propDisplayCC        = "0E03"
	propBody             = "1000"
	propTransportHeaders = "007D"
	propAttachLongName   = "3707"
	propAttachShortName  = "3704"
	propAttachMimeTag    = "370E"
	propAttachData       = "3701"
)

const attachPrefix = "__attach_version1.0_#"

// msgAttachment accumulates the streams of one attachment storage.
type msgAttachment struct {
	longName  string
	shortName string
	mimeTag   string
	data      []byte
}

// parseCompound decodes an Outlook compound-document message. The body comes
// from the single authoritative body property; attachments are enumerated
// from the attachment storages, each payload pulled from its data stream.
func parseCompound(raw []byte) (*models.ParsedMessage, error) {
	doc, err := mscfb.New(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: open compound document: %v", ErrMalformedContainer, err)
	}

	props := make(map[string]string)
	attachments := make(map[string]*msgAttachment)

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		name := entry.Name
		if !strings.HasPrefix(name, "__substg1.0_") || len(name) < len("__substg1.0_")+8 {
			continue
		}
		tag := name[len("__substg1.0_"):]
		prop, kind := tag[:4], tag[4:]

		if idx := attachIndex(entry.Path); idx != "" {
			att := attachments[idx]
			if att == nil {
				att = &msgAttachment{}
				attachments[idx] = att
			}
			data, err := io.ReadAll(entry)
			if err != nil {
				continue
			}
			switch prop {
			case propAttachLongName:
				att.longName = decodeProp(data, kind)
			case propAttachShortName:
				att.shortName = decodeProp(data, kind)
			case propAttachMimeTag:
				att.mimeTag = decodeProp(data, kind)
			case propAttachData:
				att.data = data
			}
			continue
		}

		// Top-level message property
		switch prop {
		case propSubject, propSenderName, propSenderEmail, propDisplayTo, propDisplayCC, propBody, propTransportHeaders:
			data, err := io.ReadAll(entry)
			if err != nil {
				continue
			}
			// Keep the first occurrence; recipient storages repeat some tags.
			if _, seen := props[prop]; !seen {
				props[prop] = decodeProp(data, kind)
			}
		}
	}

	if len(props) == 0 && len(attachments) == 0 {
		return nil, fmt.Errorf("%w: no message streams in compound document", ErrMalformedContainer)
	}

	msg := models.NewParsedMessage()
	msg.Headers[models.HeaderSubject] = props[propSubject]
	msg.Headers[models.HeaderFrom] = senderOf(props)
	msg.Headers[models.HeaderTo] = props[propDisplayTo]
	msg.Headers[models.HeaderCC] = props[propDisplayCC]
	msg.Headers[models.HeaderDate] = dateFromTransportHeaders(props[propTransportHeaders])
	msg.Body = props[propBody]

	// Deterministic attachment order: storage index order.
	indexes := make([]string, 0, len(attachments))
	for idx := range attachments {
		indexes = append(indexes, idx)
	}
	sort.Strings(indexes)

	for _, idx := range indexes {
		att := attachments[idx]
		if att.data == nil {
			continue
		}
		name := att.longName
		if name == "" {
			name = att.shortName
		}
		contentType := att.mimeTag
		if contentType == "" {
			contentType = mimetype.Detect(att.data).String()
		}
		msg.Attachments = append(msg.Attachments, models.AttachmentRef{
			Filename:    name,
			ContentType: contentType,
			Payload:     att.data,
		})
	}

	return msg, nil
}

// attachIndex returns the attachment storage name a stream lives under, or
// empty when the stream is a top-level message property.
func attachIndex(path []string) string {
	for _, p := range path {
		if strings.HasPrefix(p, attachPrefix) {
			return p
		}
	}
	return ""
}

// decodeProp converts a property stream to a string. 001F streams are
// UTF-16LE; everything else is taken as 8-bit text with invalid byte
// substitution.
func decodeProp(data []byte, kind string) string {
	if kind == "001F" {
		u16 := make([]uint16, 0, len(data)/2)
		for i := 0; i+1 < len(data); i += 2 {
			u16 = append(u16, uint16(data[i])|uint16(data[i+1])<<8)
		}
		return strings.TrimRight(string(utf16.Decode(u16)), "\x00")
	}
	return strings.TrimRight(strings.ToValidUTF8(string(data), "�"), "\x00")
}

// senderOf prefers "Name <address>" when both sender properties are present.
func senderOf(props map[string]string) string {
	name, addr := props[propSenderName], props[propSenderEmail]
	switch {
	case name != "" && addr != "" && name != addr:
		return fmt.Sprintf("%s <%s>", name, addr)
	case addr != "":
		return addr
	default:
		return name
	}
}

// dateFromTransportHeaders pulls the Date header out of the embedded
// transport header block, empty when absent.
func dateFromTransportHeaders(headers string) string {
	if headers == "" {
		return ""
	}
	m, err := mail.ReadMessage(strings.NewReader(headers + "\r\n\r\n"))
	if err != nil {
		return ""
	}
	return m.Header.Get("Date")
}
