// Command client is a minimal line-oriented REPL against a ringdb
// server: dial, send one statement, print one reply, repeat. QUIT closes
// the connection. A full client is out of scope for this module (spec.md
// §1's Non-goals); this exists only so the server is reachable without a
// third-party tool while developing against it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/ringdb/ringdb/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9090", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	in := bufio.NewScanner(os.Stdin)
	fmt.Printf("connected to %s\n", *addr)
	for {
		fmt.Print("ringdb> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			return
		}

		if _, err := conn.Write([]byte(line)); err != nil {
			fmt.Fprintln(os.Stderr, "write:", err)
			return
		}

		buf := make([]byte, 65536)
		n, err := conn.Read(buf)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			return
		}

		reply, err := protocol.FromBytes(buf[:n])
		if err != nil {
			fmt.Fprintln(os.Stderr, "malformed reply:", err)
			continue
		}
		printReply(reply, 0)
	}
}

func printReply(r *protocol.Reply, depth int) {
	indent := strings.Repeat("  ", depth)
	switch r.Type {
	case protocol.TypeNil:
		fmt.Println(indent + "(nil)")
	case protocol.TypeInteger:
		fmt.Printf("%s(integer) %d\n", indent, r.Int)
	case protocol.TypeError:
		fmt.Printf("%s(error) %s\n", indent, r.Text)
	case protocol.TypeStatus:
		fmt.Printf("%s%s\n", indent, r.Text)
	case protocol.TypeString:
		fmt.Printf("%s%q\n", indent, r.Text)
	case protocol.TypeArray:
		if len(r.Array) == 0 {
			fmt.Println(indent + "(empty array)")
			return
		}
		for i, elem := range r.Array {
			fmt.Printf("%s%d)\n", indent, i+1)
			printReply(elem, depth+1)
		}
	}
}
