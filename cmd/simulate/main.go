package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Fires concurrent booking requests at a single slot to exercise the
// conflict guard. Exactly one request should win; the rest must see
// slot_taken.

type slotsResponse struct {
	PractitionerID int64  `json:"practitioner_id"`
	Practitioner   string `json:"practitioner"`
	Slots          []struct {
		Date string `json:"date"`
		Time string `json:"time"`
	} `json:"slots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "API server base URL")
	serviceID := flag.Int64("service", 1, "service id to book against")
	workers := flag.Int("workers", 50, "concurrent booking attempts")
	firstPatient := flag.Int64("first-patient", 1, "first patient user id; each worker uses first-patient+i")
	flag.Parse()

	log.SetFlags(log.LstdFlags)

	client := &http.Client{Timeout: 10 * time.Second}

	target, err := pickSlot(client, *baseURL, *serviceID)
	if err != nil {
		log.Fatalf("pick slot: %v", err)
	}
	log.Printf("target slot: practitioner=%d date=%s time=%s", target.practitionerID, target.date, target.tod)

	var (
		wg        sync.WaitGroup
		success   atomic.Int64
		taken     atomic.Int64
		duplicate atomic.Int64
		other     atomic.Int64
	)

	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(patientID int64) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]any{
				"patient_id":      patientID,
				"practitioner_id": target.practitionerID,
				"date":            target.date,
				"time":            target.tod,
			})

			resp, err := client.Post(*baseURL+"/bookings", "application/json", bytes.NewReader(body))
			if err != nil {
				log.Printf("patient %d: request failed: %v", patientID, err)
				other.Add(1)
				return
			}
			defer resp.Body.Close()

			raw, _ := io.ReadAll(resp.Body)
			switch resp.StatusCode {
			case http.StatusCreated:
				success.Add(1)
			case http.StatusConflict:
				var er errorResponse
				_ = json.Unmarshal(raw, &er)
				switch er.Error {
				case "slot_taken":
					taken.Add(1)
				case "already_booked_same_day":
					duplicate.Add(1)
				default:
					other.Add(1)
					log.Printf("patient %d: conflict %q", patientID, er.Error)
				}
			default:
				other.Add(1)
				log.Printf("patient %d: status %d body %s", patientID, resp.StatusCode, raw)
			}
		}(*firstPatient + int64(i))
	}
	wg.Wait()

	elapsed := time.Since(start)
	log.Printf("done in %s: success=%d slot_taken=%d same_day=%d other=%d",
		elapsed, success.Load(), taken.Load(), duplicate.Load(), other.Load())

	if success.Load() != 1 {
		log.Fatalf("expected exactly one winning booking, got %d", success.Load())
	}
	log.Println("conflict guard held: exactly one booking won the slot")
}

type slotTarget struct {
	practitionerID int64
	date           string
	tod            string
}

func pickSlot(client *http.Client, baseURL string, serviceID int64) (slotTarget, error) {
	resp, err := client.Get(fmt.Sprintf("%s/services/%d/slots", baseURL, serviceID))
	if err != nil {
		return slotTarget{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return slotTarget{}, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}

	var listings []slotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return slotTarget{}, err
	}

	for _, l := range listings {
		if len(l.Slots) > 0 {
			return slotTarget{
				practitionerID: l.PractitionerID,
				date:           l.Slots[0].Date,
				tod:            l.Slots[0].Time,
			}, nil
		}
	}
	return slotTarget{}, fmt.Errorf("no open slots for service %d", serviceID)
}
