// Package levels 活跃度等级：由收发消息总量折算等级与称号。
//
// 共 200 个称号、每称号 I–V 五档，合计 1000 级；越级后由最后一个
// 称号无限循环 I–V。
package levels

import (
	"fmt"
	"math"
)

// Tiers 称号表，顺序即等级顺序
var Tiers = []string{
	"Newcomer", "Curious", "Wanderer", "Seeker", "Scout",
	"Novice", "Pilgrim", "Drifter", "Roamer", "Wayfarer",

	"Whisperer", "Explorer", "Pathfinder", "Confidant", "Companion",
	"Voyager", "Trailblazer", "Pioneer", "Adventurer", "Ranger",

	"Shadow", "Mystic", "Phantom", "Specter", "Shade",
	"Lurker", "Stalker", "Nightwalker", "Duskweaver", "Gloom",

	"Oracle", "Visionary", "Prophet", "Sage", "Enlightened",
	"Scholar", "Philosopher", "Mentor", "Luminary", "Savant",

	"Enigma", "Cipher", "Riddle", "Puzzle", "Paradox",
	"Mirage", "Illusion", "Labyrinth", "Cryptic", "Arcanum",

	"Sentinel", "Guardian", "Warden", "Protector", "Champion",
	"Enforcer", "Vanguard", "Bastion", "Bulwark", "Titan",

	"Wraith", "Revenant", "Duskborn", "Apparition", "Banshee",
	"Lich", "Ghoul", "Harbinger", "Dread", "Netherbane",

	"Sovereign", "Eclipse", "Immortal", "Legend", "Eternal",
	"Ascendant", "Paragon", "Apex", "Zenith", "Pinnacle",

	"Ember", "Tempest", "Torrent", "Glacier", "Inferno",
	"Cyclone", "Avalanche", "Tsunami", "Magma", "Thunder",

	"Starborn", "Nebula", "Comet", "Pulsar", "Quasar",
	"Nova", "Solaris", "Lunar", "Cosmos", "Astral",

	"Wisp", "Wrathling", "Poltergeist", "Eidolon", "Seraph",
	"Djinn", "Nephilim", "Sylph", "Nymph", "Reverie",

	"Griffin", "Phoenix", "Hydra", "Leviathan", "Chimera",
	"Basilisk", "Wyvern", "Kraken", "Behemoth", "Cerberus",

	"Sorcerer", "Warlock", "Enchanter", "Conjurer", "Alchemist",
	"Runekeeper", "Spellbinder", "Hexweaver", "Thaumaturge", "Invoker",

	"Rogue", "Outlaw", "Shadowstep", "Saboteur", "Assassin",
	"Marauder", "Corsair", "Smuggler", "Mercenary", "Bounty",

	"Bloom", "Thornwood", "Wildheart", "Verdant", "Rootwalker",
	"Beastcaller", "Stormleaf", "Mossgrave", "Fernwhisper", "Briar",

	"Void", "Hollow", "Oblivion", "Abyss", "Nullborn",
	"Entropy", "Riftwalker", "Voidtouched", "Nether", "Darkrift",

	"Ironclad", "Steelheart", "Forgeborn", "Anvil", "Warbringer",
	"Siegebreaker", "Battleforged", "Hammerfall", "Shieldwall", "Warmonger",

	"Noble", "Monarch", "Emperor", "Overlord", "Warlord",
	"Archon", "Regent", "Tyrant", "Conqueror", "Dynasty",

	"Dreamwalker", "Mistveil", "Twilight", "Ethereal", "Phantasm",
	"Sleepless", "Somnium", "Lullaby", "Spearsoul", "Whisperwind",

	"Mythic", "Godlike", "Primordial", "Infinite", "Absolute",
	"Omniscient", "Celestial", "Timeless", "Boundless", "Omega",

	"Transcendent",
}

var roman = []string{"I", "II", "III", "IV", "V"}

// Progress 等级详情
type Progress struct {
	Level      int     `json:"level"`
	Title      string  `json:"level_title"`
	Ratio      float64 `json:"level_progress"`
	XP         int64   `json:"xp"`
	XPInLevel  int64   `json:"xp_in_level"`
	XPForNext  int64   `json:"xp_for_next"`
}

// XPForLevel 升至 n 级所需累计经验，1 级为 0
func XPForLevel(n int) int64 {
	if n <= 1 {
		return 0
	}
	return int64(n-1) * int64(n-1)
}

// ForXP 按累计经验返回等级与称号，例如 (1, "Newcomer I")
func ForXP(xp int64) (int, string) {
	if xp < 0 {
		xp = 0
	}
	level := int(math.Sqrt(float64(xp))) + 1
	// 浮点开方在边界处可能偏差一级，按阈值校正
	for XPForLevel(level+1) <= xp {
		level++
	}
	for level > 1 && XPForLevel(level) > xp {
		level--
	}
	return level, Title(level)
}

// Title 等级对应称号
func Title(level int) string {
	if level < 1 {
		level = 1
	}
	tierIdx := (level - 1) / len(roman)
	if tierIdx >= len(Tiers) {
		tierIdx = len(Tiers) - 1
	}
	return fmt.Sprintf("%s %s", Tiers[tierIdx], roman[(level-1)%len(roman)])
}

// ForXPProgress 等级详情，含升级进度
func ForXPProgress(xp int64) Progress {
	if xp < 0 {
		xp = 0
	}
	level, title := ForXP(xp)
	current := XPForLevel(level)
	next := XPForLevel(level + 1)
	inLevel := xp - current
	needed := next - current
	ratio := 0.0
	if needed > 0 {
		ratio = math.Round(float64(inLevel)/float64(needed)*10000) / 10000
	}
	return Progress{
		Level:     level,
		Title:     title,
		Ratio:     ratio,
		XP:        xp,
		XPInLevel: inLevel,
		XPForNext: needed,
	}
}
