// roomctl is the operator CLI for the session coordinator: list who is
// present in a room, force-evict a user, or dump the persisted admission
// counters straight from BadgerDB.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"stowroom/domain"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("COORDINATOR_ADDR", "http://localhost:8080"), "Coordinator base URL")
	room := flag.String("room", "", "Room id")
	user := flag.String("user", "", "User id (kick only)")
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB (inspect only)")
	flag.Parse()

	switch flag.Arg(0) {
	case "presence":
		requireRoom(*room)
		presence(*addr, *room)
	case "kick":
		requireRoom(*room)
		if *user == "" {
			log.Fatal("kick requires -user")
		}
		kick(*addr, *room, *user)
	case "inspect":
		inspect(*dbPath)
	default:
		fmt.Fprintln(os.Stderr, "usage: roomctl [-addr URL] [-room ID] [-user ID] [-db PATH] presence|kick|inspect")
		os.Exit(2)
	}
}

func requireRoom(room string) {
	if room == "" {
		log.Fatal("a -room id is required")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func presence(addr, room string) {
	resp, err := httpClient().Get(fmt.Sprintf("%s/rooms/%s/presence", addr, room))
	if err != nil {
		log.Fatal("Coordinator unreachable: ", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Coordinator answered %s", resp.Status)
	}

	var payload struct {
		Users []domain.PresentUser `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Fatal("Malformed presence response: ", err)
	}

	color.Green.Printf("%d user(s) present in room %s\n", len(payload.Users), room)
	table := newTable([]string{"User ID", "Username"})
	for _, u := range payload.Users {
		table.Append([]string{u.UserID, u.Username})
	}
	table.Render()
}

func kick(addr, room, user string) {
	body, _ := json.Marshal(map[string]string{"userId": user})
	resp, err := httpClient().Post(
		fmt.Sprintf("%s/rooms/%s/kick", addr, room), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal("Coordinator unreachable: ", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Coordinator answered %s", resp.Status)
	}

	var payload struct {
		Evicted int `json:"evicted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Fatal("Malformed kick response: ", err)
	}
	if payload.Evicted == 0 {
		color.Yellow.Printf("User %s had no open connection in room %s\n", user, room)
		return
	}
	color.Green.Printf("Evicted user %s (%d connection(s) closed)\n", user, payload.Evicted)
}

// inspect dumps the "seq:" keyspace from a read-only badger open.
// BypassLockGuard allows opening while the coordinator holds the lock.
func inspect(dbPath string) {
	if dbPath == "" {
		log.Fatal("inspect requires -db or BADGER_FILEPATH")
	}
	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	table := newTable([]string{"Room", "Admissions", "Key"})
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("seq:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append([]string{strings.TrimPrefix(key, "seq:"), string(v), key})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
