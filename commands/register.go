package commands

import (
	"context"
	"errors"

	"Volfbot/db_client"
	"Volfbot/server"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
)

// Bot answers slash commands by driving the per-guild servers in registry
type Bot struct {
	registry *server.Registry
	deps     server.Deps
	history  *db_client.History
	theme    int
	commands *Commands
}

// NewBot wires the command layer. history may be nil when no database is configured.
func NewBot(registry *server.Registry, deps server.Deps, history *db_client.History, theme int) *Bot {
	return &Bot{
		registry: registry,
		deps:     deps,
		history:  history,
		theme:    theme,
		commands: &Commands{},
	}
}

// RegisterSlashCommands adds all slash commands to the session.
func (b *Bot) RegisterSlashCommands(s *discordgo.Session, appID, guildID string) error {
	b.addCommands()
	b.commands.AddComponent("pause", b.pauseButton)
	b.commands.AddComponent("resume", b.resumeButton)
	b.commands.AddComponent("skip", b.skipButton)

	if err := b.commands.Register(s, appID, guildID); err != nil {
		log.WithError(err).Error("Failed to register slash commands")
		return err
	}
	return nil
}

func (b *Bot) addCommands() {
	linkOption := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "url",
			Description: "Youtube link for the video",
			Required:    true,
		},
	}

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "join",
		Description: "Join your voice channel.",
	}, b.join)

	for _, name := range []string{"disconnect", "dc"} {
		b.commands.Add(&discordgo.ApplicationCommand{
			Name:        name,
			Description: "Disconnect the bot from voice chat.",
		}, b.disconnect)
	}

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "play",
		Description: "Play a video from a Youtube URL.",
		Options:     linkOption,
	}, b.play)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "metadata",
		Description: "Show what a Youtube URL points at without queueing it.",
		Options:     linkOption,
	}, b.metadata)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "stop",
		Description: "Stop playback and rewind the queue.",
	}, b.stop)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "clear",
		Description: "Empty the queue.",
	}, b.clear)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "skip",
		Description: "Skip the current video.",
	}, b.skip)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "loop",
		Description: "Loop the queue.",
	}, b.loop)

	for _, name := range []string{"end-looping", "eloop"} {
		b.commands.Add(&discordgo.ApplicationCommand{
			Name:        name,
			Description: "Stop looping the queue.",
		}, b.endLooping)
	}

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "queue",
		Description: "Show the current queue.",
	}, b.showQueue)

	for _, name := range []string{"now-playing", "np"} {
		b.commands.Add(&discordgo.ApplicationCommand{
			Name:        name,
			Description: "Show the video that's now playing.",
		}, b.nowPlaying)
	}

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "pause",
		Description: "Pause the current video.",
	}, b.pause)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "resume",
		Description: "Resume the paused video.",
	}, b.resume)

	b.commands.Add(&discordgo.ApplicationCommand{
		Name:        "history",
		Description: "Show what this server played recently.",
	}, b.showHistory)
}

type CommandHandler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError

type Commands struct {
	commands          []*discordgo.ApplicationCommand
	handlers          map[string]CommandHandler
	componentHandlers map[string]CommandHandler
}

// Adds command to the slash commands.
func (c *Commands) Add(com *discordgo.ApplicationCommand, handler CommandHandler) {
	c.commands = append(c.commands, com)
	if c.handlers == nil {
		c.handlers = map[string]CommandHandler{}
	}
	c.handlers[com.Name] = handler
}

// Adds command to component commands, keyed on the first letter of the custom_id
func (c *Commands) AddComponent(name string, handler CommandHandler) {
	if c.componentHandlers == nil {
		c.componentHandlers = map[string]CommandHandler{}
	}
	c.componentHandlers[string(name[0])] = handler
}

// Register all slash commands and component commands
func (c *Commands) Register(s *discordgo.Session, appID, guildID string) error {
	// Handles all interactions and routes them to the correct command handler
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			c.callCommandHandler(s, i)
		case discordgo.InteractionMessageComponent:
			c.callComponentHandler(s, i)
		}
	})

	// Registers slash commands, guild scoped when a development guild is configured
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, c.commands); err != nil {
		log.WithError(err).Error("Failed to create commands")
		return err
	}
	return nil
}

// Cannot be an interaction through DMs
func checkDirectMessage(i *discordgo.InteractionCreate) (*discordgo.User, *interactionError) {
	if i.GuildID == "" || i.Member == nil {
		return nil, &interactionError{
			errors.New("command invoked outside of valid guild"),
			"This command is only available in a valid server",
		}
	}
	return i.Member.User, nil
}

// Component or button based interactions
func (c *Commands) callComponentHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	m := i.MessageComponentData()
	if m.CustomID == "" {
		iErr := &interactionError{
			errors.New("No custom_id assigned to component on message " + i.Message.ID),
			"Couldn't handle component, invalid custom_id",
		}
		iErr.Handle(s, i)
		return
	}
	if _, iErr := checkDirectMessage(i); iErr != nil {
		iErr.Handle(s, i)
		return
	}

	commandLabel := string(m.CustomID[0])
	if handler, ok := c.componentHandlers[commandLabel]; ok {
		ctx := context.WithValue(ctx, log.Key, log.Fields{
			"user_id":          i.Member.User.ID,
			"channel_id":       i.ChannelID,
			"guild_id":         i.GuildID,
			"user":             i.Member.User.Username,
			"interaction_type": "component",
			"command":          commandLabel,
		})
		log.WithContext(ctx).Info("Invoking component command")
		iErr := handler(ctx, s, i)
		if iErr != nil {
			iErr.Handle(s, i)
		}
	}
}

// Text or slash command interactions
func (c *Commands) callCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var iError *interactionError
	ctx := context.Background()
	commandAuthor, iError := checkDirectMessage(i)
	if iError != nil {
		iError.Handle(s, i)
		return
	}

	commandName := i.ApplicationCommandData().Name

	channel, err := s.Channel(i.ChannelID)
	if err != nil {
		iError = &interactionError{err, "Couldn't query channel"}
		iError.Handle(s, i)
		return
	}

	if handler, ok := c.handlers[commandName]; ok {
		ctx := context.WithValue(ctx, log.Key, log.Fields{
			"author_id":        commandAuthor.ID,
			"channel_id":       i.ChannelID,
			"guild_id":         i.GuildID,
			"user":             commandAuthor.Username,
			"channel_name":     channel.Name,
			"interaction_type": "application",
			"command":          commandName,
		})
		log.WithContext(ctx).Info("Invoking application command")
		iError = handler(ctx, s, i)
		if iError != nil {
			iError.Handle(s, i)
		}
	}
}
