package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/guildforge/internal/config"
	"github.com/nextlevelbuilder/guildforge/internal/consumer"
)

// syncCmd bootstraps the catalogue from a guild's current channel list:
// it reads the guild over the chat platform's REST API and posts the
// snapshot to a running serve instance's sync endpoint. Safe to re-run.
func syncCmd() *cobra.Command {
	var guildID string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Bootstrap the catalogue from a guild's current channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Discord.Token == "" {
				return fmt.Errorf("GUILDFORGE_DISCORD_TOKEN is not set")
			}
			if guildID == "" {
				return fmt.Errorf("--guild is required")
			}

			snap, err := fetchGuildSnapshot(cfg.Discord.Token, guildID)
			if err != nil {
				return err
			}
			return postSnapshot(apiURL, snap)
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "guild ID to snapshot")
	cmd.Flags().StringVar(&apiURL, "api-url", "http://127.0.0.1:18520", "base URL of the running query API")
	return cmd
}

func fetchGuildSnapshot(token, guildID string) (consumer.GuildSnapshot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return consumer.GuildSnapshot{}, fmt.Errorf("create session: %w", err)
	}

	channels, err := session.GuildChannels(guildID)
	if err != nil {
		return consumer.GuildSnapshot{}, fmt.Errorf("list guild channels: %w", err)
	}

	groups := map[string]*consumer.GroupSnapshot{}
	var order []string
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildCategory {
			continue
		}
		groups[ch.ID] = &consumer.GroupSnapshot{
			ExternalID: ch.ID,
			Name:       ch.Name,
			Position:   ch.Position,
		}
		order = append(order, ch.ID)
	}
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		g, ok := groups[ch.ParentID]
		if !ok {
			continue // uncategorized channels have no village
		}
		g.Channels = append(g.Channels, consumer.ChannelSnapshot{
			ExternalID: ch.ID,
			Name:       ch.Name,
			Topic:      ch.Topic,
			Position:   ch.Position,
		})
	}

	snap := consumer.GuildSnapshot{GuildID: guildID}
	sort.SliceStable(order, func(i, j int) bool {
		return groups[order[i]].Position < groups[order[j]].Position
	})
	for _, id := range order {
		snap.Groups = append(snap.Groups, *groups[id])
	}
	return snap, nil
}

func postSnapshot(apiURL string, snap consumer.GuildSnapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(apiURL+"/api/mappings/sync", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync endpoint returned %d", resp.StatusCode)
	}

	var res consumer.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode sync result: %w", err)
	}
	fmt.Printf("sync complete: %d groups created, %d updated; %d channels created, %d updated\n",
		res.GroupsCreated, res.GroupsUpdated, res.ChannelsCreated, res.ChannelsUpdated)
	return nil
}
