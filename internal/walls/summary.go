package walls

// Primary is the rank-1 wall on one side.
type Primary struct {
	Strike      float64 `json:"strike"`
	Exposure    float64 `json:"exposure"`
	Distance    float64 `json:"distance"`
	DistancePct float64 `json:"distance_pct"`
}

type Nearest struct {
	Type        Type    `json:"type"`
	Strike      float64 `json:"strike"`
	Distance    float64 `json:"distance"`
	DistancePct float64 `json:"distance_pct"`
}

// Summary condenses a detection pass for reporting.
type Summary struct {
	TotalWalls         int      `json:"total_walls"`
	CallWallCount      int      `json:"call_walls_count"`
	PutWallCount       int      `json:"put_walls_count"`
	CurrentPrice       float64  `json:"current_price"`
	PrimaryCallWall    *Primary `json:"primary_call_wall,omitempty"`
	PrimaryPutWall     *Primary `json:"primary_put_wall,omitempty"`
	NearestWall        *Nearest `json:"nearest_wall,omitempty"`
	AvgCallDistance    float64  `json:"avg_call_wall_distance"`
	AvgCallDistancePct float64  `json:"avg_call_wall_distance_pct"`
	AvgPutDistance     float64  `json:"avg_put_wall_distance"`
	AvgPutDistancePct  float64  `json:"avg_put_wall_distance_pct"`
}

// Summarize reports counts, the primary wall per side, the nearest wall and
// average distances. Distances are recomputed against spot.
func Summarize(w Walls, spot float64) Summary {
	w = w.Retag(spot)
	s := Summary{
		TotalWalls:    len(w.CallWalls) + len(w.PutWalls),
		CallWallCount: len(w.CallWalls),
		PutWallCount:  len(w.PutWalls),
		CurrentPrice:  spot,
	}
	if s.TotalWalls == 0 {
		return s
	}

	s.PrimaryCallWall = primaryOf(w.CallWalls, spot)
	s.PrimaryPutWall = primaryOf(w.PutWalls, spot)

	var nearest *Level
	for _, l := range w.All() {
		if nearest == nil || l.DistanceFromSpot < nearest.DistanceFromSpot {
			l := l
			nearest = &l
		}
	}
	s.NearestWall = &Nearest{
		Type:        nearest.Type,
		Strike:      nearest.Strike,
		Distance:    nearest.DistanceFromSpot,
		DistancePct: nearest.DistancePct(spot),
	}

	s.AvgCallDistance = avgDistance(w.CallWalls)
	s.AvgPutDistance = avgDistance(w.PutWalls)
	if spot > 0 {
		s.AvgCallDistancePct = s.AvgCallDistance / spot * 100
		s.AvgPutDistancePct = s.AvgPutDistance / spot * 100
	}
	return s
}

func primaryOf(levels []Level, spot float64) *Primary {
	for _, l := range levels {
		if l.SignificanceRank == 1 {
			return &Primary{
				Strike:      l.Strike,
				Exposure:    l.ExposureValue,
				Distance:    l.DistanceFromSpot,
				DistancePct: l.DistancePct(spot),
			}
		}
	}
	return nil
}

func avgDistance(levels []Level) float64 {
	if len(levels) == 0 {
		return 0
	}
	var sum float64
	for _, l := range levels {
		sum += l.DistanceFromSpot
	}
	return sum / float64(len(levels))
}
