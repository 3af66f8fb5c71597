/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/launix-de/tinyjit/invoke"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// runServe starts the websocket compile endpoint: every text message
// received is compiled and run as its own Unit against a fresh heap,
// never shared with any other connection or message, and the decoded
// result (or compile error) is written back as one text message.
func runServe(addr string) {
	http.HandleFunc("/compile", handleCompile)
	fmt.Printf("tinyjit: serving on %s\n", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		panic(err)
	}
}

func handleCompile(res http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(res, req, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	for {
		messageType, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		reply := compileAndDescribe(string(msg))
		if err := ws.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return
		}
	}
}

func compileAndDescribe(source string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			reply = fmt.Sprintf("panic: %v", r)
		}
	}()
	unit, err := invoke.Compile(source, invoke.DefaultCodeCapacity, invoke.DefaultHeapCapacity)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer unit.Close()
	raw := unit.RunOnce()
	return fmt.Sprintf("%+v", invoke.Decode(raw))
}
