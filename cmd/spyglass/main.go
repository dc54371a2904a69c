package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hive-corporation/spyglass/feed"
	"github.com/hive-corporation/spyglass/misp"
)

type searchResponse struct {
	Value     string `json:"value"`
	Count     int    `json:"count"`
	Sightings []struct {
		EventUUID string `json:"event_uuid"`
		EventInfo string `json:"event_info"`
		Type      string `json:"type"`
		Category  string `json:"category"`
	} `json:"sightings"`
}

func main() {
	targetFile := flag.String("file", "indicators.txt", "Path to a file with one indicator per line")
	serverAddr := flag.String("server", "http://localhost:8181", "Address of the Spyglass feed daemon")
	inspectPath := flag.String("inspect", "", "Inspect a local event JSON file or feed directory instead of querying the daemon")
	flag.Parse()

	if *inspectPath != "" {
		if err := inspect(*inspectPath); err != nil {
			log.Fatalf("❌ inspection failed: %v", err)
		}
		return
	}

	file, err := os.Open(*targetFile)
	if err != nil {
		log.Fatalf("❌ error reading file: %v", err)
	}
	defer file.Close()

	client := &http.Client{Timeout: 10 * time.Second}
	token := os.Getenv("SPYGLASS_API_TOKEN")

	fmt.Printf("🔍 analyzing %s against the mirror at %s...\n\n", *targetFile, *serverAddr)

	scanner := bufio.NewScanner(file)
	threatsFound := 0
	scanned := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		attrType := misp.GuessType(line)
		value := misp.NormalizeValue(attrType, line)

		scanned++
		resp, err := lookup(client, *serverAddr, token, value)
		if err != nil {
			log.Printf("⚠️ error checking %s: %v", value, err)
			continue
		}

		if resp.Count > 0 && len(resp.Sightings) > 0 {
			fmt.Printf("🚨 [HIT] %s (%s) -> %s (%d sightings)\n", value, attrType, resp.Sightings[0].EventInfo, resp.Count)
			threatsFound++
		} else {
			fmt.Printf("✅ [CLEAN] %s (%s)\n", value, attrType)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("❌ error scanning file: %v", err)
	}

	fmt.Println("------------------------------------------------")
	if threatsFound > 0 {
		fmt.Printf("❌ FAIL: %d known indicators found.\n", threatsFound)
		os.Exit(1)
	}

	fmt.Printf("✅ SUCCESS: %d indicators checked. No hits.\n", scanned)
	os.Exit(0)
}

// inspect reports on a local event file or feed directory without touching
// the network.
func inspect(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var events []*misp.Event
	if info.IsDir() {
		events, err = feed.NewLoader(path).Events()
		if err != nil {
			return err
		}
		fmt.Printf("🔍 feed directory %s: %d events\n\n", path, len(events))
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		ev := misp.NewEvent()
		if err := ev.FromJSON(data); err != nil {
			return err
		}
		events = []*misp.Event{ev}
	}

	unknownTypes := 0
	for _, ev := range events {
		unknownTypes += reportEvent(ev)
	}

	if unknownTypes > 0 {
		fmt.Printf("⚠️  %d attributes carry types the platform catalogue does not list.\n", unknownTypes)
	}
	return nil
}

func reportEvent(ev *misp.Event) int {
	fmt.Printf("📦 %s\n", ev.Info())
	fmt.Printf("   uuid: %s\n", ev.UUID())
	if date, err := ev.Get("date"); err == nil {
		fmt.Printf("   date: %v\n", date)
	}

	attrs := ev.Attributes()
	for _, obj := range ev.Objects() {
		attrs = append(attrs, obj.Attributes()...)
	}

	unknown := 0
	for _, a := range attrs {
		if !misp.IsKnownType(a.Type()) {
			fmt.Printf("   ⚠️  unknown attribute type %q (value %s)\n", a.Type(), a.Value())
			unknown++
		}
	}

	summary := fmt.Sprintf("   attributes: %d", len(attrs))
	if tags := ev.Tags(); len(tags) > 0 {
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			names = append(names, t.Name())
		}
		summary += " | tags: " + strings.Join(names, ", ")
	}
	fmt.Println(summary)

	if ev.Edited() {
		fmt.Println("   state: modified (timestamp will be dropped on publish)")
	} else {
		fmt.Println("   state: unmodified")
	}
	fmt.Println()
	return unknown
}

func lookup(client *http.Client, server, token, value string) (*searchResponse, error) {
	u := fmt.Sprintf("%s/api/v1/attributes/search?value=%s", strings.TrimSuffix(server, "/"), url.QueryEscape(value))
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
