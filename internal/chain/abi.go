package chain

// arenaABI covers the read-only views of an arena diamond the indexer needs.
// Outputs are flat so they unpack positionally.
const arenaABI = `[
  {"type":"function","name":"getArenaConstants","stateMutability":"view","inputs":[],"outputs":[
    {"name":"configHash","type":"bytes32"},
    {"name":"teamsEnabled","type":"bool"},
    {"name":"numTeams","type":"uint256"},
    {"name":"ranked","type":"bool"},
    {"name":"confirmStart","type":"bool"},
    {"name":"targetsRequiredForVictory","type":"uint256"},
    {"name":"blockMoves","type":"bool"},
    {"name":"blockCapture","type":"bool"},
    {"name":"manualSpawn","type":"bool"},
    {"name":"targetPlanets","type":"bool"},
    {"name":"whitelistEnabled","type":"bool"},
    {"name":"claimVictoryEnergyPercent","type":"uint256"},
    {"name":"startTime","type":"uint256"},
    {"name":"endTime","type":"uint256"}
  ]},
  {"type":"function","name":"getGameConstants","stateMutability":"view","inputs":[],"outputs":[
    {"name":"adminCanAddPlanets","type":"bool"},
    {"name":"worldRadiusLocked","type":"bool"},
    {"name":"worldRadiusMin","type":"uint256"},
    {"name":"planetRarity","type":"uint256"},
    {"name":"planetTransferEnabled","type":"bool"},
    {"name":"locationRevealCooldown","type":"uint256"},
    {"name":"spaceJunkEnabled","type":"bool"},
    {"name":"spaceJunkLimit","type":"uint256"},
    {"name":"timeFactorHundredths","type":"uint256"},
    {"name":"perlinThreshold1","type":"uint256"},
    {"name":"perlinThreshold2","type":"uint256"},
    {"name":"perlinThreshold3","type":"uint256"},
    {"name":"initPerlinMin","type":"uint256"},
    {"name":"initPerlinMax","type":"uint256"},
    {"name":"spawnRimArea","type":"uint256"},
    {"name":"biomeThreshold1","type":"uint256"},
    {"name":"biomeThreshold2","type":"uint256"},
    {"name":"perlinMirrorX","type":"bool"},
    {"name":"perlinMirrorY","type":"bool"},
    {"name":"perlinLengthScale","type":"uint256"},
    {"name":"planetLevelThresholds","type":"uint256[]"},
    {"name":"modifiers","type":"uint256[8]"},
    {"name":"spaceships","type":"bool[5]"},
    {"name":"captureZonesEnabled","type":"bool"},
    {"name":"captureZoneChangeBlockInterval","type":"uint256"},
    {"name":"captureZoneRadius","type":"uint256"},
    {"name":"captureZoneHoldBlocksRequired","type":"uint256"},
    {"name":"captureZonesPerFiveThousandArea","type":"uint256"}
  ]},
  {"type":"function","name":"getBlocklist","stateMutability":"view","inputs":[],"outputs":[
    {"name":"sources","type":"uint256[]"},
    {"name":"destinations","type":"uint256[]"}
  ]},
  {"type":"function","name":"getPlanetData","stateMutability":"view","inputs":[{"name":"loc","type":"uint256"}],"outputs":[
    {"name":"planetLevel","type":"uint256"},
    {"name":"planetType","type":"uint8"},
    {"name":"spaceType","type":"uint8"},
    {"name":"perlin","type":"uint256"},
    {"name":"isSpawnPlanet","type":"bool"},
    {"name":"isTargetPlanet","type":"bool"}
  ]},
  {"type":"function","name":"revealedCoords","stateMutability":"view","inputs":[{"name":"loc","type":"uint256"}],"outputs":[
    {"name":"locationId","type":"uint256"},
    {"name":"x","type":"int256"},
    {"name":"y","type":"int256"},
    {"name":"revealer","type":"address"}
  ]}
]`
