package offline

// node is one scene of a fixed story tree. Terminal nodes carry no
// choices and no next map; their text ends the story.
type node struct {
	text    string
	choices []string
	next    map[string]string
}

// Base trees. Every valid theme maps onto one of these via themeAliases;
// scene texts are sized so the formatted message plus choices stays
// inside the radio payload budget.

var fantasyTree = map[string]node{
	"start": {
		text:    "You stand at a foggy crossroads. A road winds east, a cave yawns north, chimney smoke rises west.",
		choices: []string{"Take the road", "Enter the cave", "Seek the village"},
		next:    map[string]string{"1": "road", "2": "cave", "3": "village"},
	},
	"road": {
		text:    "A troll blocks the old stone bridge, demanding a toll of one shiny thing.",
		choices: []string{"Pay the toll", "Fight the troll", "Swim the river"},
		next:    map[string]string{"1": "road_pay", "2": "road_fight", "3": "road_swim"},
	},
	"road_pay": {
		text: "The troll bites your coin, grins, and waves you across. Beyond the bridge the lost city glitters. THE END",
	},
	"road_fight": {
		text: "Your blade rings off troll hide. It flicks you into the river; you wash ashore wiser and soggier. THE END",
	},
	"road_swim": {
		text: "The current is stronger than pride. A river spirit hauls you out and names you its errand-runner. THE END",
	},
	"cave": {
		text:    "Glowworms light a fork in the tunnel. Cold air drifts left, a faint hum rises from the right.",
		choices: []string{"Go left", "Go right", "Turn back"},
		next:    map[string]string{"1": "cave_left", "2": "cave_right", "3": "cave_back"},
	},
	"cave_left": {
		text: "A dragon sleeps on a mound of gold. One coin rolls to your boot, and you let it lie. Mostly. THE END",
	},
	"cave_right": {
		text: "The hum is a choir of mushroom folk. They crown you an honorary spore and sing you home. THE END",
	},
	"cave_back": {
		text: "Daylight never felt so good. Some doors are better left shut. THE END",
	},
	"village": {
		text:    "The village feast is tonight, and the innkeeper swears the stew is haunted.",
		choices: []string{"Taste the stew", "Ask the ghost", "Slip away"},
		next:    map[string]string{"1": "village_stew", "2": "village_ghost", "3": "village_leave"},
	},
	"village_stew": {
		text: "The stew whispers compliments while you eat. You are now the innkeeper's favorite. THE END",
	},
	"village_ghost": {
		text: "The ghost is the old cook, furious about oregano. You promise reform and the haunting lifts. THE END",
	},
	"village_leave": {
		text: "You slip into the night with warm bread in your pocket. Adventure can wait until breakfast. THE END",
	},
}

var scifiTree = map[string]node{
	"start": {
		text:    "Alarms wail aboard the colony ship Meridian. The reactor stutters and the ship AI has gone silent.",
		choices: []string{"Reach the reactor", "Wake the captain", "Query the AI core"},
		next:    map[string]string{"1": "reactor", "2": "captain", "3": "core"},
	},
	"reactor": {
		text:    "Coolant mist floods the reactor bay. A maintenance drone offers you a wrench with suspicious enthusiasm.",
		choices: []string{"Take the wrench", "Refuse it", "Vent the mist"},
		next:    map[string]string{"1": "reactor_fix", "2": "reactor_refuse", "3": "reactor_vent"},
	},
	"reactor_fix": {
		text: "One confident turn and the reactor purrs. The drone beeps what is unmistakably applause. THE END",
	},
	"reactor_refuse": {
		text: "The drone shrugs and fixes it alone in four seconds. You supervise with dignity. THE END",
	},
	"reactor_vent": {
		text: "The mist clears to reveal the problem: a coffee cup on the manifold. You never tell the crew. THE END",
	},
	"captain": {
		text:    "The captain's pod won't open. Her console blinks a stale override code and a chess game, mid-move.",
		choices: []string{"Enter the code", "Force the pod", "Finish the game"},
		next:    map[string]string{"1": "captain_code", "2": "captain_force", "3": "captain_chess"},
	},
	"captain_code": {
		text: "The pod hisses open. The captain was awake all along, timing your response. You passed. THE END",
	},
	"captain_force": {
		text: "The crowbar works. So does the captain's glare. The reactor fixes itself out of embarrassment. THE END",
	},
	"captain_chess": {
		text: "Knight to f6. The AI concedes the game and, mollified, brings the reactor back online. THE END",
	},
	"core": {
		text:    "The AI core answers in haiku only. It seems to be having a crisis about the mission's purpose.",
		choices: []string{"Reply in haiku", "Reboot it", "Listen quietly"},
		next:    map[string]string{"1": "core_haiku", "2": "core_reboot", "3": "core_listen"},
	},
	"core_haiku": {
		text: "Your haiku is terrible. The AI laughs so hard it restores main power by accident. THE END",
	},
	"core_reboot": {
		text: "Rebooting works. The AI returns with no memory of poetry and a strong opinion about you. THE END",
	},
	"core_listen": {
		text: "Heard at last, the AI sighs through every speaker and hums the engines back to life. THE END",
	},
}

var horrorTree = map[string]node{
	"start": {
		text:    "Rain hammers the windows of Blackwood Manor. Behind you, the front door locks itself.",
		choices: []string{"Climb the stairs", "Search the cellar", "Try the door"},
		next:    map[string]string{"1": "stairs", "2": "cellar", "3": "door"},
	},
	"stairs": {
		text:    "On the landing a portrait's eyes follow you. A child's music box plays behind the nursery door.",
		choices: []string{"Open the nursery", "Face the portrait", "Keep climbing"},
		next:    map[string]string{"1": "stairs_nursery", "2": "stairs_portrait", "3": "stairs_attic"},
	},
	"stairs_nursery": {
		text: "The music box winds down. Something small says thank you for listening, and the house exhales. THE END",
	},
	"stairs_portrait": {
		text: "You stare back. The portrait blinks first, and the manor's grip on you loosens. THE END",
	},
	"stairs_attic": {
		text: "The attic holds a century of letters never sent. You post them at dawn; the house sleeps at last. THE END",
	},
	"cellar": {
		text:    "The cellar smells of earth and candle smoke. Chalk marks circle a trapdoor that was never on any plan.",
		choices: []string{"Open the trapdoor", "Study the marks", "Take the candles"},
		next:    map[string]string{"1": "cellar_trapdoor", "2": "cellar_marks", "3": "cellar_candles"},
	},
	"cellar_trapdoor": {
		text: "Below is a second cellar, and below that, a third. You stop counting and start climbing. THE END",
	},
	"cellar_marks": {
		text: "The marks are a warning written backwards. Reading them aloud undoes the lock upstairs. THE END",
	},
	"cellar_candles": {
		text: "Candlelight shows footprints beside yours all along. They wave goodbye at the door. THE END",
	},
	"door": {
		text:    "The lock turns but the door opens onto the hallway you just left. The manor is folding its halls.",
		choices: []string{"Walk the loop", "Break a window", "Speak to the house"},
		next:    map[string]string{"1": "door_loop", "2": "door_window", "3": "door_speak"},
	},
	"door_loop": {
		text: "On the seventh lap the manor gets dizzy before you do. A real exit appears, slightly ashamed. THE END",
	},
	"door_window": {
		text: "Glass breaks; rain pours in. The manor, houseproud to the end, shows you out to stop the mess. THE END",
	},
	"door_speak": {
		text: "You say you only came to look. The house, starved of visitors, unlocks everything at once. THE END",
	},
}

// themeAliases resolves every accepted theme onto a base tree.
var themeAliases = map[string]string{
	"fantasy":         "fantasy",
	"medieval":        "fantasy",
	"dark_fantasy":    "fantasy",
	"urban_fantasy":   "fantasy",
	"fairy_tale":      "fantasy",
	"mythology":       "fantasy",
	"ancient":         "fantasy",
	"renaissance":     "fantasy",
	"victorian":       "fantasy",
	"wild_west":       "fantasy",
	"pirate":          "fantasy",
	"expedition":      "fantasy",
	"comedy":          "fantasy",
	"romance":         "fantasy",
	"slice_of_life":   "fantasy",
	"wholesome":       "fantasy",
	"high_school":     "fantasy",
	"college":         "fantasy",
	"corporate":       "fantasy",
	"anime":           "fantasy",
	"superhero":       "scifi",
	"scifi":           "scifi",
	"cyberpunk":       "scifi",
	"dieselpunk":      "scifi",
	"steampunk":       "scifi",
	"post_apocalypse": "scifi",
	"dystopian":       "scifi",
	"space_opera":     "scifi",
	"horror":          "horror",
	"cosmic_horror":   "horror",
	"occult":          "horror",
	"grimdark":        "horror",
	"noir":            "horror",
	"mystery":         "horror",
}

var baseTrees = map[string]map[string]node{
	"fantasy": fantasyTree,
	"scifi":   scifiTree,
	"horror":  horrorTree,
}
