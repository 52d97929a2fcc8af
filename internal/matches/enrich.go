package matches

import (
	"github.com/riftwatch/riftwatch/internal/domain"
)

// enrich builds the detailed view for one match: team share percentages
// from the payload and, when a timeline is available, death times, first
// blood involvement, and objective timestamps.
func enrich(matchID string, payload *domain.MatchPayload, p *domain.Participant, timeline *domain.Timeline) domain.DetailedMatch {
	var teamKills, teamDamage, teamGold, teamTowerDamage int
	for i := range payload.Info.Participants {
		mate := &payload.Info.Participants[i]
		if mate.TeamID != p.TeamID {
			continue
		}
		teamKills += mate.Kills
		teamDamage += mate.TotalDamageToChampions
		teamGold += mate.GoldEarned
		teamTowerDamage += mate.DamageDealtToBuildings
	}

	d := domain.DetailedMatch{
		MatchSummary:           summarize(matchID, payload, p),
		CS:                     p.TotalMinionsKilled + p.NeutralMinionsKilled,
		VisionScore:            p.VisionScore,
		DamageDealtToChampions: p.TotalDamageToChampions,
		GoldEarned:             p.GoldEarned,
		KillParticipation:      share(p.Kills+p.Assists, teamKills),
		DamageShare:            share(p.TotalDamageToChampions, teamDamage),
		GoldShare:              share(p.GoldEarned, teamGold),
		TeamKills:              teamKills,
		TotalMinionsKilled:     p.TotalMinionsKilled,
		NeutralMinionsKilled:   p.NeutralMinionsKilled,
		DamageDealtToBuildings: p.DamageDealtToBuildings,
		DamageDealtToTurrets:   p.DamageDealtToTurrets,
		TeamTowerDamage:        teamTowerDamage,
		TurretKills:            p.TurretKills,
		InhibitorKills:         p.InhibitorKills,
		TotalDamageDealt:       p.TotalDamageDealt,
		LargestKillingSpree:    p.LargestKillingSpree,
		ChampionLevel:          p.ChampionLevel,
	}

	if timeline != nil {
		applyTimeline(&d, timeline, p.ParticipantID)
	}

	return d
}

// share returns part/whole as a percentage, guarding the zero team case.
func share(part, whole int) float64 {
	if whole < 1 {
		whole = 1
	}
	return float64(part) / float64(whole) * 100
}

// applyTimeline walks the event log once, recording the player's deaths,
// whether they were involved in first blood, and objective take times.
func applyTimeline(d *domain.DetailedMatch, timeline *domain.Timeline, participantID int) {
	foundFirstBlood := false

	for _, frame := range timeline.Info.Frames {
		for _, event := range frame.Events {
			switch event.Type {
			case domain.EventChampionKill:
				if !foundFirstBlood {
					foundFirstBlood = true
					switch {
					case event.KillerID == participantID:
						d.FirstBloodKill = true
					case containsInt(event.AssistingParticipantIDs, participantID):
						d.FirstBloodAssist = true
					case event.VictimID == participantID:
						d.FirstBloodVictim = true
					}
				}
				if event.VictimID == participantID {
					d.DeathTimes = append(d.DeathTimes, float64(event.Timestamp)/1000)
				}

			case domain.EventEliteMonsterKill, domain.EventBuildingKill:
				switch event.MonsterType {
				case "DRAGON", "BARON_NASHOR", "RIFTHERALD":
					d.ObjectiveTimestamps = append(d.ObjectiveTimestamps, event.Timestamp)
				}
			}
		}
	}
}

func containsInt(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
